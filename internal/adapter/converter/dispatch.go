package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"supportrag/internal/domain"
	"supportrag/internal/port"
)

const (
	schemaName    = "SupportDocument"
	schemaVersion = "1.0.0"
)

// Dispatch routes conversion to a converter chosen by file extension.
type Dispatch struct {
	byExt map[string]port.DocumentConverter
}

// NewDispatch wires the PDF and HTML converters.
func NewDispatch(pdf *PDFConverter, html *HTMLConverter) *Dispatch {
	return &Dispatch{byExt: map[string]port.DocumentConverter{
		".pdf":  pdf,
		".html": html,
		".htm":  html,
	}}
}

func (d *Dispatch) Convert(ctx context.Context, path string) (domain.ConvertedDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := d.byExt[ext]
	if !ok {
		return domain.ConvertedDocument{}, fmt.Errorf("%w: unsupported file type %q", domain.ErrConversion, ext)
	}
	return c.Convert(ctx, path)
}
