package upload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sakif/estate/internal/apperror"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSave(t *testing.T) {
	store := newTestStore(t)

	content := "fake image bytes"
	saved, err := store.Save("photo.jpg", int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasSuffix(saved.Filename, ".jpg") {
		t.Errorf("Filename = %q, want .jpg extension preserved", saved.Filename)
	}
	if saved.Path != "uploads/"+saved.Filename {
		t.Errorf("Path = %q, want uploads/%s", saved.Path, saved.Filename)
	}
	if strings.Contains(saved.Filename, "photo") {
		t.Errorf("Filename = %q, want generated name, not the original", saved.Filename)
	}

	// The file must exist on disk with the uploaded content
	data, err := os.ReadFile(filepath.Join(store.Dir(), saved.Filename))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != content {
		t.Errorf("saved content = %q, want %q", data, content)
	}
}

func TestSave_GeneratedNamesUnique(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Save("same.png", 1, strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, err := store.Save("same.png", 1, strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if a.Filename == b.Filename {
		t.Errorf("two uploads of %q got the same stored name %q", "same.png", a.Filename)
	}
}

func TestSave_RejectsUnsupportedType(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("malware.exe", 4, strings.NewReader("boom"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Save() error = %v, want ErrValidation", err)
	}
}

func TestSave_RejectsDeclaredOversize(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("big.jpg", MaxFileSize+1, strings.NewReader("tiny"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Save() error = %v, want ErrValidation", err)
	}
}
