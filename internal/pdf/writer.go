package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// ErrNoPages is returned when a document is requested without any page.
var ErrNoPages = errors.New("pdf: no pages to write")

// WriteDocument writes a new PDF to w with one page per image, in order.
// Pages are embedded losslessly as PNG.
func WriteDocument(w io.Writer, images ...image.Image) error {
	if len(images) == 0 {
		return ErrNoPages
	}

	readers := make([]io.Reader, 0, len(images))
	for i, img := range images {
		if img == nil {
			return fmt.Errorf("page %d: nil image", i+1)
		}
		var buf bytes.Buffer
		if err := utils.EncodeImage(&buf, img, imaging.PNG, 0); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		readers = append(readers, &buf)
	}

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, w, readers, imp, nil); err != nil {
		return fmt.Errorf("failed to assemble PDF: %w", err)
	}
	return nil
}

// WriteDocumentFile is WriteDocument into a newly created file at path.
func WriteDocumentFile(path string, images ...image.Image) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: output path chosen by the caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteDocument(f, images...)
}

// PageCount reports the number of pages of the PDF read from rs.
func PageCount(rs io.ReadSeeker) (int, error) {
	return api.PageCount(rs, nil)
}
