// Package upload stores uploaded images on the local filesystem.
//
// Files are written under a single uploads directory with generated names
// (an xid plus the original extension), and referenced everywhere else by
// the relative path "uploads/<name>" — the same path the HTTP server mounts
// the directory under. Clients fold that path into a listing's image list
// or into the user's avatar field.
package upload

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/estate/internal/apperror"
)

// MaxFileSize is the per-file upload limit (10 MiB).
const MaxFileSize = 10 << 20

// allowedExtensions are the image types accepted for upload.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store writes uploaded files into a directory on disk.
type Store struct {
	dir string // absolute or working-dir-relative directory, e.g. "data/uploads"
}

// NewStore creates the uploads directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are stored in, for mounting as a static route.
func (s *Store) Dir() string {
	return s.dir
}

// SavedFile describes one stored upload.
type SavedFile struct {
	Filename string `json:"filename"` // generated name, e.g. "crk3abc0....jpg"
	Path     string `json:"path"`     // relative path clients reference, e.g. "uploads/crk3abc0....jpg"
}

// Save writes one file to disk under a generated name.
//
// originalName is only used for its extension; the stored name is an xid,
// so uploads can never collide or traverse out of the directory.
func (s *Store) Save(originalName string, size int64, r io.Reader) (*SavedFile, error) {
	if size > MaxFileSize {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file %s is too large (max %d MB)", originalName, MaxFileSize>>20))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, apperror.ValidationFailed("file", "File type not supported or upload failed.")
	}

	filename := xid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("upload: creating file %s: %w", filename, err)
	}
	defer dst.Close()

	// LimitReader guards against a lying Content-Length: stop one byte past
	// the limit and reject if we actually read that far.
	written, err := io.Copy(dst, io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("upload: writing file %s: %w", filename, err)
	}
	if written > MaxFileSize {
		os.Remove(dst.Name())
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file %s is too large (max %d MB)", originalName, MaxFileSize>>20))
	}

	return &SavedFile{
		Filename: filename,
		Path:     path.Join("uploads", filename),
	}, nil
}
