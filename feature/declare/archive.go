package declare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"declaration-manager/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrNotArchived is returned for an unknown archive id.
var ErrNotArchived = errors.New("declaration not found in archive")

// ArchiveEntry describes one archived declaration.
type ArchiveEntry struct {
	ID           string    `json:"id"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Archive keeps submitted declarations in object storage, named
// <prefix><timestamp>-<id>.json so that key order is submission order.
type Archive struct {
	client storage.Client
	bucket string
	prefix string
	keep   int
	now    func() time.Time
}

// NewArchive creates an archive. keep bounds the number of retained
// declarations; zero keeps all of them.
func NewArchive(client storage.Client, bucket, prefix string, keep int) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix, keep: keep, now: time.Now}
}

// Put stores doc under id and prunes old entries.
func (a *Archive) Put(ctx context.Context, id string, doc []byte) (string, error) {
	key := a.prefix + a.now().UTC().Format("20060102T150405.000Z") + "-" + id + ".json"
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(doc), int64(len(doc)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive declaration %s: %w", id, err)
	}
	if _, err := a.Prune(ctx); err != nil {
		return key, err
	}
	return key, nil
}

// List returns archived declarations, oldest first.
func (a *Archive) List(ctx context.Context) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", obj.Err)
		}
		id, ok := a.idOf(obj.Key)
		if !ok {
			continue
		}
		entries = append(entries, ArchiveEntry{ID: id, Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Get returns the archived declaration with the given id.
func (a *Archive) Get(ctx context.Context, id string) ([]byte, error) {
	entries, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID != id {
			continue
		}
		return storage.ReadObject(ctx, a.client, a.bucket, e.Key)
	}
	return nil, ErrNotArchived
}

// Prune removes the oldest declarations beyond the retention limit and returns
// how many were removed.
func (a *Archive) Prune(ctx context.Context) (int, error) {
	if a.keep <= 0 {
		return 0, nil
	}
	entries, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	excess := len(entries) - a.keep
	if excess <= 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, excess)
	for _, e := range entries[:excess] {
		objectsCh <- minio.ObjectInfo{Key: e.Key}
	}
	close(objectsCh)

	var errs []error
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("failed to remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return excess - len(errs), errors.Join(errs...)
	}
	return excess, nil
}

func (a *Archive) idOf(key string) (string, bool) {
	name := strings.TrimPrefix(key, a.prefix)
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".json")
	i := strings.Index(name, "-")
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}
