package llpstore

import (
	"context"
	"testing"

	"github.com/llp-go/llp/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackend_PutGetRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		backend, err := NewLocalBackend(t.TempDir(), compress)
		require.NoError(t, err)

		labels := []uint64{0, 1, 1, 2, 7, 7, 7, 3}
		ctx := context.Background()
		require.NoError(t, backend.Put(ctx, "labels_0.bin", labels))

		got, err := backend.Get(ctx, "labels_0.bin")
		require.NoError(t, err)
		assert.Equal(t, labels, got)
	}
}

func TestLocalBackend_GetMissingKey(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir(), false)
	require.NoError(t, err)

	_, err = backend.Get(context.Background(), "nope.bin")
	assert.Error(t, err)
}

func TestLocalBackend_Delete(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir(), false)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "k", []uint64{1, 2, 3}))
	require.NoError(t, backend.Delete(ctx, "k"))

	_, err = backend.Get(ctx, "k")
	assert.Error(t, err)

	// deleting again is a no-op
	assert.NoError(t, backend.Delete(ctx, "k"))
}

func TestLocalBackend_EmptyLabels(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir(), true)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "empty.bin", nil))
	got, err := backend.Get(ctx, "empty.bin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewBackend_DefaultsToLocal(t *testing.T) {
	backend, err := NewBackend(&config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)
	_, ok := backend.(*LocalBackend)
	assert.True(t, ok)
}

func TestNewBackend_NilConfig(t *testing.T) {
	backend, err := NewBackend(nil)
	require.NoError(t, err)
	_, ok := backend.(*LocalBackend)
	assert.True(t, ok)
}

func TestNewBackend_UnsupportedType(t *testing.T) {
	_, err := NewBackend(&config.StorageConfig{Type: "s3"})
	assert.Error(t, err)
}

func TestNewBackend_COSMissingCredentials(t *testing.T) {
	_, err := NewBackend(&config.StorageConfig{Type: "cos", Bucket: "b", Region: "ap-guangzhou"})
	assert.Error(t, err)
}

func TestDecode_TruncatedBlob(t *testing.T) {
	_, err := decode([]byte{1, 2, 3}, false)
	assert.Error(t, err)
}

func TestDecode_LengthMismatch(t *testing.T) {
	blob, err := encode([]uint64{1, 2, 3}, false)
	require.NoError(t, err)
	_, err = decode(blob[:len(blob)-1], false)
	assert.Error(t, err)
}
