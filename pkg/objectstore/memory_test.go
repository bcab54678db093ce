package objectstore

import (
	"context"
	"io"
	"testing"
)

func TestMemoryStore_UploadAndStream(t *testing.T) {
	s := NewMemoryStore("documents")
	ctx := context.Background()

	storagePath, err := s.Upload(ctx, []byte("hello"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if storagePath != "documents/stage-validate/u1/t1/pdf_document.pdf" {
		t.Errorf("Upload() storagePath = %q", storagePath)
	}

	reader, err := s.Stream(ctx, storagePath)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Stream() data = %q, want hello", data)
	}
}

func TestMemoryStore_CopyThenRemove(t *testing.T) {
	s := NewMemoryStore("documents")
	ctx := context.Background()

	src, _ := s.Upload(ctx, []byte("data"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	dst := "documents/archive/fcvt/isw/admission/transcript/t1/principal.pdf"

	if err := s.Copy(ctx, src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	reader, err := s.Stream(ctx, dst)
	if err != nil {
		t.Fatalf("Stream(dst) error = %v", err)
	}
	reader.Close()

	if err := s.Remove(ctx, src); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Stream(ctx, src); err == nil {
		t.Error("Stream() after Remove() should error")
	}
}
