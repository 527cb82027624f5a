// Package config provides configuration management for the declaration manager.
//
// It utilizes Viper for loading configuration from environment variables and a
// .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, body limit
//   - Log: level and format
//   - Storage: S3/MinIO credentials, bucket, declaration archive
//   - Database: MySQL or SQLite connection for the database snapshot source
//   - Device: remote API endpoint, credentials, retry policy
//   - Snapshot: source selection and cache TTL
//   - Reconcile: dry run, per-domain transactions, concurrency
//
// Environment variables use SECTION_KEY, e.g. DEVICE_HOST or SNAPSHOT_SOURCE.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Host)
package config
