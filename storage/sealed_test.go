package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/encryption"
	"github.com/kbukum/flowkit/logger"
)

// memStore is an in-memory Storage for exercising the sealed wrapper.
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[path] = data
	return nil
}

func (m *memStore) Download(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("storage: file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

func (m *memStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memStore) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	for path, data := range m.objects {
		if strings.HasPrefix(path, prefix) {
			files = append(files, FileInfo{Path: path, Size: int64(len(data))})
		}
	}
	return files, nil
}

func newSealed(t *testing.T) (*Sealed, *memStore) {
	t.Helper()
	svc, err := encryption.NewChaCha20("artifact-key")
	if err != nil {
		t.Fatalf("NewChaCha20 failed: %v", err)
	}
	inner := newMemStore()
	return NewSealed(inner, svc), inner
}

func TestSealed_RoundTrip(t *testing.T) {
	sealed, inner := newSealed(t)
	payload := []byte(`{"version":1,"nodes":[]}`)

	if err := sealed.Upload(context.Background(), "p.json", bytes.NewReader(payload)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// The inner store must never see the plaintext.
	if bytes.Contains(inner.objects["p.json"], []byte("version")) {
		t.Fatal("plaintext visible in inner store")
	}

	rc, err := sealed.Download(context.Background(), "p.json")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestSealed_TamperDetection(t *testing.T) {
	sealed, inner := newSealed(t)

	if err := sealed.Upload(context.Background(), "p.json", strings.NewReader("artifact")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	data := inner.objects["p.json"]
	data[len(data)-1] ^= 0x01

	if _, err := sealed.Download(context.Background(), "p.json"); err == nil {
		t.Fatal("expected tampered download to fail")
	}
}

func TestSealed_MetadataPassThrough(t *testing.T) {
	sealed, _ := newSealed(t)
	ctx := context.Background()

	if err := sealed.Upload(ctx, "a/p.json", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	exists, err := sealed.Exists(ctx, "a/p.json")
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got %v, %v", exists, err)
	}

	files, err := sealed.List(ctx, "a/")
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one object, got %v, %v", files, err)
	}

	if err := sealed.Delete(ctx, "a/p.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, _ = sealed.Exists(ctx, "a/p.json")
	if exists {
		t.Fatal("expected object to be deleted")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "nope"}, nil, logger.NewDefault("test"))
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}
