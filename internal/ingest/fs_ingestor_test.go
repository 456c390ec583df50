package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
)

func TestIngestBytes(t *testing.T) {
	dir := t.TempDir()
	ing, err := NewFSIngestor(dir, nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}

	req, err := ing.IngestBytes(context.Background(), "zadost.pdf", []byte("pdf bytes"))
	if err != nil {
		t.Fatalf("IngestBytes: %v", err)
	}

	if req.MediaKind != constants.PDF {
		t.Errorf("MediaKind = %q, want PDF", req.MediaKind)
	}
	if len(req.ContentHash) != 64 {
		t.Errorf("ContentHash = %q, want sha256 hex", req.ContentHash)
	}
	saved, err := os.ReadFile(req.SourcePath)
	if err != nil {
		t.Fatalf("saved upload unreadable: %v", err)
	}
	if string(saved) != "pdf bytes" {
		t.Errorf("saved bytes differ: %q", saved)
	}
	if !strings.HasPrefix(filepath.Base(req.SourcePath), req.ID.String()+"_") {
		t.Errorf("saved name %q not prefixed with request id", req.SourcePath)
	}
}

func TestIngestBytesSameContentDifferentRequests(t *testing.T) {
	ing, err := NewFSIngestor(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}
	data := []byte("same bytes")

	a, err := ing.IngestBytes(context.Background(), "a.txt", data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ing.IngestBytes(context.Background(), "b.txt", data)
	if err != nil {
		t.Fatal(err)
	}

	if a.ID == b.ID {
		t.Error("each ingestion must assign a fresh request id")
	}
	if a.ContentHash != b.ContentHash {
		t.Error("identical bytes must share a content hash")
	}
}

func TestIngestBytesRejections(t *testing.T) {
	ing, err := NewFSIngestor(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"unsupported extension", "script.exe", []byte("MZ")},
		{"no extension", "README", []byte("text")},
		{"empty file", "zadost.pdf", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.IngestBytes(context.Background(), tt.filename, tt.data)
			if !errors.Is(err, common.ErrIngestion) {
				t.Errorf("err = %v, want ErrIngestion", err)
			}
		})
	}
}

func TestIngestBytesSanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	ing, err := NewFSIngestor(dir, nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}

	req, err := ing.IngestBytes(context.Background(), "../../etc/passwd.txt", []byte("x"))
	if err != nil {
		t.Fatalf("IngestBytes: %v", err)
	}
	if filepath.Dir(req.SourcePath) != dir {
		t.Errorf("upload escaped the upload dir: %q", req.SourcePath)
	}
}

func TestIngestPath(t *testing.T) {
	ing, err := NewFSIngestor(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}
	watched := filepath.Join(t.TempDir(), "zadost.txt")
	if err := os.WriteFile(watched, []byte("watched submission"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, data, err := ing.IngestPath(context.Background(), watched)
	if err != nil {
		t.Fatalf("IngestPath: %v", err)
	}
	if string(data) != "watched submission" {
		t.Errorf("data = %q", data)
	}
	if req.MediaKind != constants.TEXT {
		t.Errorf("MediaKind = %q, want TEXT", req.MediaKind)
	}
}

func TestIngestPathMissingFile(t *testing.T) {
	ing, err := NewFSIngestor(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSIngestor: %v", err)
	}
	if _, _, err := ing.IngestPath(context.Background(), "/no/such/file.pdf"); err == nil {
		t.Error("missing file must fail")
	}
}

func TestArchiveProcessed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "done.pdf")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ArchiveProcessed(src, nil); err != nil {
		t.Fatalf("ArchiveProcessed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file still present after archiving")
	}
	if _, err := os.Stat(filepath.Join(dir, "processed", "done.pdf")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
}
