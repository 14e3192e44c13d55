package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/storage"
)

func newLocal(t *testing.T) (*storage.LocalStore, string, string) {
	t.Helper()
	base := t.TempDir()
	uploads := filepath.Join(base, "uploads")
	reports := filepath.Join(base, "reports")
	store, err := storage.NewLocalStore(uploads, reports)
	require.NoError(t, err)
	return store, uploads, reports
}

func TestLocalStore_PutOpen(t *testing.T) {
	store, uploads, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.RootUploads, "a.jpg", strings.NewReader("first")))
	require.NoError(t, store.Put(ctx, storage.RootUploads, "a.jpg", strings.NewReader("second")))

	rc, err := store.Open(ctx, storage.RootUploads, "a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.jpg", entries[0].Name())
}

func TestLocalStore_RootsAreSeparate(t *testing.T) {
	store, _, reports := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.RootReports, "informe.pdf", strings.NewReader("%PDF")))
	_, err := os.Stat(filepath.Join(reports, "informe.pdf"))
	require.NoError(t, err)

	_, err = store.Open(ctx, storage.RootUploads, "informe.pdf")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLocalStore_Delete(t *testing.T) {
	store, uploads, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.RootUploads, "a.jpg", strings.NewReader("jpeg")))
	require.NoError(t, store.Delete(ctx, storage.RootUploads, "a.jpg"))
	_, err := os.Stat(filepath.Join(uploads, "a.jpg"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Deleting again is fine.
	assert.NoError(t, store.Delete(ctx, storage.RootUploads, "a.jpg"))
	assert.ErrorIs(t, store.Delete(ctx, storage.RootUploads, "../a.jpg"), storage.ErrInvalidPath)
	assert.ErrorIs(t, store.Delete(ctx, "tmp", "a.jpg"), storage.ErrInvalidPath)
}

func TestLocalStore_NotFound(t *testing.T) {
	store, uploads, _ := newLocal(t)
	require.NoError(t, os.Mkdir(filepath.Join(uploads, "dir"), 0o755))

	_, err := store.Open(context.Background(), storage.RootUploads, "missing.jpg")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = store.Open(context.Background(), storage.RootUploads, "dir")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLocalStore_RejectsEscapes(t *testing.T) {
	store, _, _ := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"../secret", "a/../../b", "/etc/passwd", `..\x`, "", "a//b", "./a"} {
		err := store.Put(ctx, storage.RootUploads, name, strings.NewReader("x"))
		assert.True(t, errors.Is(err, storage.ErrInvalidPath), name)
		_, err = store.Open(ctx, storage.RootUploads, name)
		assert.True(t, errors.Is(err, storage.ErrInvalidPath), name)
	}

	err := store.Put(ctx, "tmp", "a.jpg", strings.NewReader("x"))
	assert.True(t, errors.Is(err, storage.ErrInvalidPath))
}

func TestLocalStore_CancelledContext(t *testing.T) {
	store, _, _ := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, storage.RootUploads, "a.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref      string
		root     string
		name     string
		wantFail bool
	}{
		{ref: "uploads/x.jpg", root: storage.RootUploads, name: "x.jpg"},
		{ref: "/uploads/x.jpg", root: storage.RootUploads, name: "x.jpg"},
		{ref: "reports/informe.pdf", root: storage.RootReports, name: "informe.pdf"},
		{ref: "x.jpg", root: storage.RootUploads, name: "x.jpg"},
		{ref: "2024/x.jpg", root: storage.RootUploads, name: "2024/x.jpg"},
		{ref: "", wantFail: true},
		{ref: "uploads/../../etc/passwd", wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			root, name, err := storage.SplitRef(tt.ref)
			if tt.wantFail {
				assert.ErrorIs(t, err, storage.ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.root, root)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "foto_1.jpg", storage.SafeName("foto 1.jpg"))
	assert.Equal(t, "passwd", storage.SafeName("../../etc/passwd"))
	assert.Equal(t, "img.png", storage.SafeName(`C:\Users\me\img.png`))
	assert.Equal(t, "fresa_.jpg", storage.SafeName("fresa¿.jpg"))

	generated := storage.SafeName("...")
	assert.Len(t, generated, 36)
}

func TestRefAndPublicPath(t *testing.T) {
	ref := storage.Ref(storage.RootUploads, "a.jpg")
	assert.Equal(t, "uploads/a.jpg", ref)
	assert.Equal(t, "/uploads/a.jpg", storage.PublicPath(ref))
	assert.Equal(t, "/reports/b.pdf", storage.PublicPath("/reports/b.pdf"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", storage.ContentType("a.pdf"))
	assert.Equal(t, "image/png", storage.ContentType("a.PNG"))
	assert.Equal(t, "application/octet-stream", storage.ContentType("noext"))
}
