package zip

import (
	stdzip "archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	data, err := Archive([]File{
		{Name: "a_transcript.txt", Data: []byte("hello")},
		{Name: "a_transcript.doc", Data: []byte("<html></html>")},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	zr, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entry count = %d, want 2", len(zr.File))
	}
	if zr.File[0].Name != "a_transcript.txt" {
		t.Fatalf("first entry = %q", zr.File[0].Name)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	content, _ := io.ReadAll(rc)
	if string(content) != "hello" {
		t.Fatalf("entry content = %q", content)
	}
}

func TestArchiveEmpty(t *testing.T) {
	data, err := Archive(nil)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("empty archive unreadable: %v", err)
	}
}
