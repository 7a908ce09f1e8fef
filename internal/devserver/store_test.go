package devserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsstorage "github.com/tendant/qiniu-upload/pkg/storage/fs"
	memorystorage "github.com/tendant/qiniu-upload/pkg/storage/memory"
	s3storage "github.com/tendant/qiniu-upload/pkg/storage/s3"
)

func TestOpenStore(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")

	dir := t.TempDir()

	tests := []struct {
		name     string
		url      string
		wantType interface{}
		wantErr  string
	}{
		{"empty defaults to memory", "", &memorystorage.Backend{}, ""},
		{"memory URL", "memory://", &memorystorage.Backend{}, ""},
		{"filesystem URL", "file://" + dir, &fsstorage.Backend{}, ""},
		{"S3 URL", "s3://my-bucket?region=eu-west-1&endpoint=http://localhost:9000&path_style=true", &s3storage.Backend{}, ""},
		{"S3 without bucket", "s3://", nil, "bucket name cannot be empty"},
		{"S3 bad path_style", "s3://b?path_style=maybe", nil, "invalid path_style"},
		{"empty file path", "file://", nil, "path cannot be empty"},
		{"unsupported scheme", "ftp://example.com", nil, "unsupported storage URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStore(context.Background(), tt.url)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, store)
		})
	}
}
