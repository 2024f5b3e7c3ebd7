package services

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPages returns the plain text of every page, in order. Pages without
// a content stream come back empty.
func ExtractPages(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
