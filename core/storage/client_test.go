package storage_test

import (
	"context"
	"errors"
	"testing"

	"mediainfo-keeper/core/storage"
	"mediainfo-keeper/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTP", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "mediainfo").Return(true, nil)

		require.NoError(t, storage.EnsureBucket(ctx, client, "mediainfo", ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "mediainfo").Return(false, nil)
		client.On("MakeBucket", ctx, "mediainfo", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		require.NoError(t, storage.EnsureBucket(ctx, client, "mediainfo", "eu-west-1"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "mediainfo").Return(false, errors.New("denied"))

		assert.ErrorContains(t, storage.EnsureBucket(ctx, client, "mediainfo", ""), "denied")
	})
}

func TestListKeys(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "mediainfo/a/Heat.mediainfo.json"}
	ch <- minio.ObjectInfo{Key: "mediainfo/a/notes.txt"}
	ch <- minio.ObjectInfo{Key: "mediainfo/b/Ronin.mediainfo.json"}
	close(ch)
	client.On("ListObjects", ctx, "bucket", minio.ListObjectsOptions{Prefix: "mediainfo/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	keys, err := storage.ListKeys(ctx, client, "bucket", "mediainfo/", ".mediainfo.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"mediainfo/a/Heat.mediainfo.json", "mediainfo/b/Ronin.mediainfo.json"}, keys)

	failing := new(mocks.Client)
	errCh := make(chan minio.ObjectInfo, 1)
	errCh <- minio.ObjectInfo{Err: errors.New("listing broke")}
	close(errCh)
	failing.On("ListObjects", ctx, "bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(errCh))

	_, err = storage.ListKeys(ctx, failing, "bucket", "", ".json")
	assert.ErrorContains(t, err, "listing broke")
}
