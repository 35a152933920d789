package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestPutOpenRemove(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, err := s.Put(context.Background(), "My Photo (1).PNG", ".jpg", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(ref, RefPrefix) || !strings.Contains(ref, "_my-photo") || !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("unexpected reference %q", ref)
	}

	f, err := s.Open(ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "pixels" {
		t.Errorf("expected stored contents, got %q", data)
	}

	if err := s.Remove(ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Open(ref); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected blob to be gone, got %v", err)
	}
	if err := s.Remove(ref); err != nil {
		t.Errorf("removing twice should not fail: %v", err)
	}
}

func TestKeysAreUnique(t *testing.T) {
	a := Key("shirt.jpg", "")
	b := Key("shirt.jpg", "")
	if a == b {
		t.Errorf("expected distinct keys, got %q twice", a)
	}
	if !strings.HasSuffix(a, "_shirt.jpg") {
		t.Errorf("unexpected key %q", a)
	}
}

func TestKeyStripsPaths(t *testing.T) {
	for _, name := range []string{"../../etc/passwd", `C:\Users\me\..\evil.gif`, "", "..."} {
		key := Key(name, ".jpg")
		if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
			t.Errorf("Key(%q) = %q is not a plain file name", name, key)
		}
	}
}

func TestForeignReferences(t *testing.T) {
	s, _ := New(t.TempDir())

	for _, ref := range []string{"", "uploads/", "uploads/../secret", "https://example.com/x.jpg", "static/x.jpg", "uploads/.upload-1"} {
		if Owns(ref) {
			t.Errorf("Owns(%q) = true", ref)
		}
		if _, err := s.Open(ref); !errors.Is(err, ErrForeignRef) {
			t.Errorf("Open(%q): expected ErrForeignRef, got %v", ref, err)
		}
	}
}
