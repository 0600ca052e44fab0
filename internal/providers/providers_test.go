package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalArtifactStorePut(t *testing.T) {
	tmpDir := t.TempDir()

	store := NewLocalArtifactStore(tmpDir)
	ctx := context.Background()

	data := []byte("test content")
	path, err := store.Put(ctx, "test/file.txt", data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if path == "" {
		t.Fatal("expected non-empty path")
	}

	filePath := filepath.Join(tmpDir, "test/file.txt")
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(content) != "test content" {
		t.Errorf("content = %q, want %q", string(content), "test content")
	}
}

func TestLocalArtifactStoreCreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	store := NewLocalArtifactStore(tmpDir)
	ctx := context.Background()

	data := []byte("nested file")
	if _, err := store.Put(ctx, "deep/nested/path/file.txt", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	filePath := filepath.Join(tmpDir, "deep/nested/path/file.txt")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Fatal("expected file to exist in nested directory")
	}
}

func TestNewRedisProvider(t *testing.T) {
	client := NewRedisProvider("localhost:6379", "password")
	if client == nil {
		t.Fatal("expected redis client to be non-nil")
	}
	defer client.Close()
}
