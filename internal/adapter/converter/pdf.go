package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"supportrag/internal/domain"
)

// PDFConverter extracts text rows from a PDF and labels rows set in a larger
// font than the body text as section headers.
type PDFConverter struct {
	headerRatio    float64
	maxHeaderWords int
}

func NewPDFConverter(headerRatio float64, maxHeaderWords int) *PDFConverter {
	if headerRatio <= 1 {
		headerRatio = 1.2
	}
	if maxHeaderWords <= 0 {
		maxHeaderWords = 16
	}
	return &PDFConverter{headerRatio: headerRatio, maxHeaderWords: maxHeaderWords}
}

// textRow is one visual line of a page.
type textRow struct {
	Page     int
	Text     string
	FontSize float64
}

func (c *PDFConverter) Convert(ctx context.Context, path string) (doc domain.ConvertedDocument, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrConversion, filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return domain.ConvertedDocument{}, fmt.Errorf("%w: %v", domain.ErrConversion, err)
	}
	defer f.Close()

	var rows []textRow
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return domain.ConvertedDocument{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageRows, err := p.GetTextByRow()
		if err != nil {
			return domain.ConvertedDocument{}, fmt.Errorf("%w: page %d: %v", domain.ErrConversion, i, err)
		}
		for _, row := range pageRows {
			if tr, ok := rowText(i, row.Content); ok {
				rows = append(rows, tr)
			}
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if title := strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text()); title != "" {
		name = title
	}

	return domain.ConvertedDocument{
		SchemaName: schemaName,
		Version:    schemaVersion,
		Name:       name,
		Origin:     domain.DocumentOrigin{MimeType: "application/pdf", Filename: filepath.Base(path)},
		Blocks:     blocksFromRows(rows, c.headerRatio, c.maxHeaderWords),
	}, nil
}

// rowText joins the fragments of a row, inserting a space where the gap
// between fragments is wider than a fifth of the font size.
func rowText(page int, content pdf.TextHorizontal) (textRow, bool) {
	if len(content) == 0 {
		return textRow{}, false
	}
	var b strings.Builder
	var size float64
	for i, t := range content {
		if i > 0 {
			prev := content[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > 0.2*t.FontSize && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		if t.FontSize > size {
			size = t.FontSize
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		return textRow{}, false
	}
	return textRow{Page: page, Text: text, FontSize: size}, true
}

// blocksFromRows labels rows and merges consecutive body rows into
// paragraphs. A paragraph ends at a header, a page break, or a row ending in
// sentence punctuation.
func blocksFromRows(rows []textRow, headerRatio float64, maxHeaderWords int) []domain.Block {
	body := bodyFontSize(rows)

	var blocks []domain.Block
	var para []string
	paraPage := 0
	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, domain.Block{Label: domain.LabelText, Text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, row := range rows {
		isHeader := body > 0 &&
			row.FontSize >= body*headerRatio &&
			len(strings.Fields(row.Text)) <= maxHeaderWords
		if isHeader {
			flush()
			blocks = append(blocks, domain.Block{Label: domain.LabelSectionHeader, Text: row.Text})
			continue
		}
		if row.Page != paraPage {
			flush()
			paraPage = row.Page
		}
		para = append(para, row.Text)
		if endsSentence(row.Text) {
			flush()
		}
	}
	flush()
	return blocks
}

// bodyFontSize is the font size covering the most characters.
func bodyFontSize(rows []textRow) float64 {
	weight := make(map[float64]int)
	for _, r := range rows {
		weight[r.FontSize] += len(r.Text)
	}
	sizes := make([]float64, 0, len(weight))
	for s := range weight {
		sizes = append(sizes, s)
	}
	sort.Float64s(sizes)

	best, bestWeight := 0.0, -1
	for _, s := range sizes {
		if weight[s] > bestWeight {
			best, bestWeight = s, weight[s]
		}
	}
	return best
}

func endsSentence(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':':
		return true
	}
	return false
}
