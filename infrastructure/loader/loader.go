package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragdocs/domain"
)

// textExtensions are treated as plain UTF-8 text.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".go":   true,
	".py":   true,
	".js":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".csv":  true,
	".html": true,
	".css":  true,
}

// Loader turns uploaded files into plain text for chunking.
type Loader struct{}

func New() *Loader { return &Loader{} }

// SupportedExtensions lists what Extract accepts, pdf included.
func (l *Loader) SupportedExtensions() []string {
	exts := make([]string, 0, len(textExtensions)+1)
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	exts = append(exts, ".pdf")
	return exts
}

// Extract returns the plain text of the file. The declared MIME type is a
// hint only; the extension decides how the bytes are interpreted.
func (l *Loader) Extract(name, declaredType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf" || declaredType == "application/pdf":
		return l.extractPDF(data)
	case textExtensions[ext] || strings.HasPrefix(declaredType, "text/"):
		return string(data), nil
	default:
		return "", &domain.IngestionError{
			Name: name,
			Err:  fmt.Errorf("unsupported file type %q", ext),
		}
	}
}

// extractPDF writes the bytes to a temp file because the pdf reader wants a
// seekable file on disk.
func (l *Loader) extractPDF(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ragdocs-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", err
	}

	f, rdr, err := pdf.Open(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", err
	}
	return buf.String(), nil
}
