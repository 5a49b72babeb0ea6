package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDIsDeterministic(t *testing.T) {
	a := ObjectID("Order #42/A", "5f0c1e3a-0000-4000-8000-000000000001")
	b := ObjectID("Order #42/A", "5f0c1e3a-0000-4000-8000-000000000001")

	assert.Equal(t, a, b)
	assert.Equal(t, "order-42a_5f0c1e3a-0000-4000-8000-000000000001.pdf", a)
	assert.NotContains(t, a, "/")
	assert.Equal(t, "order_r1.pdf", ObjectID("###", "r1"))
}

func TestLocalUploaderOverwrites(t *testing.T) {
	root := t.TempDir()
	u, err := NewLocalUploader(root, "receipts", "http://localhost:8080/")
	require.NoError(t, err)
	ctx := context.Background()

	id := ObjectID("ORD-1", "r-1")
	first, err := u.Upload(ctx, id, []byte("first"))
	require.NoError(t, err)
	second, err := u.Upload(ctx, id, []byte("second"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "http://localhost:8080/documents/receipts/ord-1_r-1.pdf", first)

	entries, err := os.ReadDir(filepath.Join(root, "receipts"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(root, "receipts", id))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalUploaderRejectsPathTraversal(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "receipts", "http://localhost")
	require.NoError(t, err)

	for _, id := range []string{"", "../escape.pdf", `a\b.pdf`, ".."} {
		_, err := u.Upload(context.Background(), id, []byte("x"))
		assert.Error(t, err, id)
	}
}

func TestLocalUploaderHonoursCancellation(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "receipts", "http://localhost")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, "a.pdf", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeWriter struct {
	objects  map[string][]byte
	name     string
	buf      bytes.Buffer
	closeErr error
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *fakeWriter) Close() error {
	if w.closeErr != nil {
		return w.closeErr
	}
	w.objects[w.name] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

func newFakeGCS(closeErr error) (*GCSUploader, map[string][]byte) {
	objects := map[string][]byte{}
	u := &GCSUploader{bucket: "receipts-bucket", prefix: "receipts"}
	u.newWriter = func(_ context.Context, object string) objectWriter {
		return &fakeWriter{objects: objects, name: object, closeErr: closeErr}
	}
	return u, objects
}

func TestGCSUploaderOverwritesSameObject(t *testing.T) {
	u, objects := newFakeGCS(nil)
	ctx := context.Background()

	first, err := u.Upload(ctx, "ord-1_r-1.pdf", []byte("v1"))
	require.NoError(t, err)
	second, err := u.Upload(ctx, "ord-1_r-1.pdf", []byte("v2"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "https://storage.googleapis.com/receipts-bucket/receipts/ord-1_r-1.pdf", first)
	require.Len(t, objects, 1)
	assert.Equal(t, "v2", string(objects["receipts/ord-1_r-1.pdf"]))
}

func TestGCSUploaderReportsFinalizeError(t *testing.T) {
	u, objects := newFakeGCS(errors.New("googleapi: Error 403: forbidden"))

	_, err := u.Upload(context.Background(), "ord-1_r-1.pdf", []byte("v1"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "forbidden"))
	assert.Empty(t, objects)
}

func TestPublicURLEscapesSegments(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/receipts/a%20b.pdf", PublicURL("b", "receipts/a b.pdf"))
}
