package batch

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Selection is one chosen file.
type Selection struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// SelectionFromPath selects a file on disk, deriving the content type from
// its extension.
func SelectionFromPath(path string) Selection {
	return Selection{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// SelectionFromReader wraps an already open body, e.g. a multipart part.
func SelectionFromReader(name, contentType string, r io.Reader) Selection {
	return Selection{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// IsCSV reports whether the file name or declared media type indicates
// comma-delimited text.
func (s Selection) IsCSV() bool {
	if strings.EqualFold(filepath.Ext(s.Name), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(s.ContentType)
	return err == nil && mediaType == "text/csv"
}

// FileInput is the reusable file selection mechanism. The controller resets
// it after every attempt so the same file can be chosen again.
type FileInput struct {
	mu       sync.Mutex
	selected *Selection
}

func (f *FileInput) Select(s Selection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = &s
}

func (f *FileInput) Selected() (Selection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return Selection{}, false
	}
	return *f.selected, true
}

func (f *FileInput) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = nil
}
