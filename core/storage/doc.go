// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so that snapshot documents and archived
// declarations can live in AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: used by EnsureBucket at startup.
//   - PutObject: writes snapshots and archived declarations.
//   - GetObject: reads snapshots and declarations.
//   - ListObjects: lists the declaration archive.
//   - RemoveObjects: prunes the declaration archive.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
