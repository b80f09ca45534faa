package checks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckStorage_Local(t *testing.T) {
	ctx := context.Background()
	existing := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	t.Run("SideBySide", func(t *testing.T) {
		target := StorageTarget{
			Backup: backup.Config{Mode: backup.ModeSideBySide, Backend: backup.BackendLocal},
			Roots:  []string{existing, missing},
		}
		report, err := CheckStorage(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, []string{missing}, report.Missing)
		assert.Equal(t, "error", report.Status)

		assert.Error(t, FixStorage(ctx, target, zap.NewNop(), report))
	})

	t.Run("CentralizedFix", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "backups")
		target := StorageTarget{
			Backup: backup.Config{Mode: backup.ModeCentralized, Root: root, Backend: backup.BackendLocal},
			Roots:  []string{existing},
		}
		report, err := CheckStorage(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, []string{root}, report.Missing)

		require.NoError(t, FixStorage(ctx, target, zap.NewNop(), report))
		assert.DirExists(t, root)

		report, err = CheckStorage(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
	})
}

func TestCheckStorage_S3(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingBucketFixed", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "mediainfo").Return(false, nil)
		client.On("MakeBucket", ctx, "mediainfo", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

		target := StorageTarget{
			Backup: backup.Config{Backend: backup.BackendS3},
			Client: client,
			Bucket: "mediainfo",
			Region: "us-east-1",
		}
		report, err := CheckStorage(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, []string{"mediainfo"}, report.Missing)

		require.NoError(t, FixStorage(ctx, target, zap.NewNop(), report))
		client.AssertExpectations(t)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "mediainfo").Return(false, errors.New("connection refused"))

		_, err := CheckStorage(ctx, StorageTarget{Backup: backup.Config{Backend: backup.BackendS3}, Client: client, Bucket: "mediainfo"})
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("NoClient", func(t *testing.T) {
		_, err := CheckStorage(ctx, StorageTarget{Backup: backup.Config{Backend: backup.BackendS3}})
		assert.Error(t, err)
	})
}
