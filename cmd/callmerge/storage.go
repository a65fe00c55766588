package main

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/dgraph-io/badger/v4"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/getsentry/callgraph/internal/storageprovider"
	"github.com/getsentry/callgraph/internal/storageutil"
)

// openStorage returns the object handler for bucketURL and a function
// releasing it.
func openStorage(ctx context.Context, bucketURL string) (storageutil.ObjectHandler, func() error, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "gs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return &storageprovider.Gcs{BucketHandle: client.Bucket(u.Host)}, client.Close, nil
	case "badger":
		path := u.Host + u.Path
		opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
		if strings.TrimSpace(path) == "" {
			opts = opts.WithInMemory(true)
		}
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, err
		}
		return &storageprovider.Badger{DB: db}, db.Close, nil
	default:
		bucket, err := blob.OpenBucket(ctx, bucketURL)
		if err != nil {
			return nil, nil, err
		}
		return &storageprovider.Blob{Bucket: bucket}, bucket.Close, nil
	}
}
