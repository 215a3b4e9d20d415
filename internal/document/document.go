// Package document inspects a PDF locally before it is uploaded. The service
// accepts PDFs only; inspection results are advisory and never block an
// upload.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"rsc.io/pdf"
)

// ErrNotPDF is returned for input that does not parse as a PDF.
var ErrNotPDF = errors.New("not a PDF document")

// Info summarizes a document.
type Info struct {
	Pages int
	// TextLayer reports whether any sampled page carries extractable text.
	// Scanned documents have none and rely on server-side OCR.
	TextLayer bool
}

// maxSampledPages bounds the text-layer probe.
const maxSampledPages = 3

// HasPDFExtension reports whether name ends in ".pdf". The service compares
// case-sensitively, so "REPORT.PDF" is rejected there and here.
func HasPDFExtension(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

// InspectFile opens path and inspects it.
func InspectFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	return Inspect(f, st.Size())
}

// Inspect parses the document in r.
func Inspect(r io.ReaderAt, size int64) (info Info, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	info.Pages = doc.NumPage()
	for i := 1; i <= info.Pages && i <= maxSampledPages; i++ {
		if pageHasText(doc.Page(i)) {
			info.TextLayer = true
			break
		}
	}
	return info, nil
}

func pageHasText(p pdf.Page) (found bool) {
	defer func() {
		if recover() != nil {
			found = false
		}
	}()
	if p.V.IsNull() || p.V.Key("Contents").IsNull() {
		return false
	}
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) != "" {
			return true
		}
	}
	return false
}

// Describe renders info for status lines, e.g. "3 pages, scanned".
func (i Info) Describe() string {
	unit := "pages"
	if i.Pages == 1 {
		unit = "page"
	}
	layer := "text"
	if !i.TextLayer {
		layer = "scanned"
	}
	return fmt.Sprintf("%d %s, %s", i.Pages, unit, layer)
}
