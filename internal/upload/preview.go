package upload

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// Preview is a locally displayable copy of a selected file.
type Preview interface {
	// Location is where the preview can be opened from.
	Location() string
	Release() error
}

// Previewer creates previews.
type Previewer interface {
	Create(file model.File) (Preview, error)
}

// TempPreviewer writes each preview to its own file under Dir.
type TempPreviewer struct {
	// Dir defaults to os.TempDir().
	Dir string
}

// Create writes the file's bytes to a uniquely named temp file.
func (p TempPreviewer) Create(file model.File) (Preview, error) {
	dir := p.Dir
	if dir == "" {
		dir = os.TempDir()
	}

	name := "todo-ui-preview-" + uuid.New().String() + previewExt(file)
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, file.Data, 0o600); err != nil {
		return nil, fmt.Errorf("writing preview: %w", err)
	}
	return &tempPreview{path: path}, nil
}

type tempPreview struct {
	path string
	once sync.Once
	err  error
}

func (t *tempPreview) Location() string {
	return t.path
}

// Release removes the temp file. Repeated calls are no-ops.
func (t *tempPreview) Release() error {
	t.once.Do(func() {
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			t.err = fmt.Errorf("removing preview %s: %w", t.path, err)
		}
	})
	return t.err
}

func previewExt(file model.File) string {
	if ext := filepath.Ext(file.Name); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, _ := mime.ExtensionsByType(file.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// LoadFile reads a local file for upload. The content type comes from
// the extension, or from the first bytes when the extension is unknown.
func LoadFile(path string) (model.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.File{}, fmt.Errorf("reading %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return model.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
