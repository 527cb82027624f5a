package storage

// Config holds configuration for the storage provider.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds snapshots and archived declarations.
	Bucket string `mapstructure:"bucket" default:"declarations"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// ArchivePrefix is the object prefix under which submitted declarations are kept.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"declarations/"`
	// ArchiveKeep is the number of archived declarations to retain. Zero keeps all.
	ArchiveKeep int `mapstructure:"archive_keep" default:"20"`
}
