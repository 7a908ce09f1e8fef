package devserver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/tendant/qiniu-upload/pkg/storage"
	fsstorage "github.com/tendant/qiniu-upload/pkg/storage/fs"
	memorystorage "github.com/tendant/qiniu-upload/pkg/storage/memory"
	s3storage "github.com/tendant/qiniu-upload/pkg/storage/s3"
)

// OpenStore builds a BlobStore from a storage URL:
//
//	memory://                 in-memory (default)
//	file:///path/to/data      filesystem
//	s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true
//
// S3 credentials come from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY or the
// default AWS credential chain.
func OpenStore(ctx context.Context, rawURL string) (storage.BlobStore, error) {
	if rawURL == "" || rawURL == "memory" {
		return memorystorage.New(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid storage URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "memory":
		return memorystorage.New(), nil
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return nil, fmt.Errorf("filesystem path cannot be empty in storage URL")
		}
		store, err := fsstorage.New(fsstorage.Config{BaseDir: path})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		return openS3(ctx, u)
	}

	return nil, fmt.Errorf("unsupported storage URL %q (use 'memory://', 'file://...', or 's3://...')", rawURL)
}

func openS3(ctx context.Context, u *url.URL) (storage.BlobStore, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("S3 bucket name cannot be empty in storage URL")
	}

	q := u.Query()
	cfg := s3storage.Config{
		Bucket:                 u.Host,
		Region:                 q.Get("region"),
		Endpoint:               q.Get("endpoint"),
		AccessKeyID:            os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey:        os.Getenv("AWS_SECRET_ACCESS_KEY"),
		CreateBucketIfNotExist: q.Get("create") == "true",
	}
	if region := os.Getenv("AWS_REGION"); cfg.Region == "" && region != "" {
		cfg.Region = region
	}
	if v := q.Get("path_style"); v != "" {
		pathStyle, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid path_style %q: %w", v, err)
		}
		cfg.UsePathStyle = pathStyle
	}

	store, err := s3storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
