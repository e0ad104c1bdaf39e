package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmarsh/picfeed-client/internal/domain"
)

// FileCapture implements domain.MediaCapture by reading an image file from
// disk. It is the CLI stand-in for the web client's camera and gallery
// picker.
type FileCapture struct {
	path string
}

// NewFileCapture captures from the given file path.
func NewFileCapture(path string) *FileCapture {
	return &FileCapture{path: path}
}

// Capture reads the file and returns its bytes with a MIME type derived
// from the extension.
func (f *FileCapture) Capture(ctx context.Context) (domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return domain.Image{}, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image file: %w", err)
	}

	return domain.Image{
		Name:     filepath.Base(f.path),
		MimeType: mimeTypeFor(f.path),
		Data:     data,
	}, nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
