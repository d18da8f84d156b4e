// Package pdf moves rasters in and out of PDF containers. Scanned pages are
// pulled out of input PDFs so they can be rectified, and rectified pages are
// bundled back into a single document.
package pdf

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageImage is one raster embedded in a PDF page.
type PageImage struct {
	Page  int // 1-based page number
	Index int // position of the image on its page
	Image image.Image
}

// ExtractImages pulls every embedded raster out of filename, limited to the
// pages in pageRange ("" means all pages). Results are ordered by page and
// then by position on the page.
func ExtractImages(filename string, pageRange string) ([]PageImage, error) {
	pages, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}
	var selection []string
	for _, p := range pages {
		selection = append(selection, strconv.Itoa(p))
	}

	scratch, err := os.MkdirTemp("", "docscan-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := api.ExtractImagesFile(filename, scratch, selection, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	images, err := collectExtractedImages(scratch, stem)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	return images, nil
}

// extracted is one file written by pdfcpu's image extraction.
type extracted struct {
	page int
	id   string
	path string
}

// compareExtracted orders by page, then by image id with shorter ids first so
// Im2 sorts before Im10.
func compareExtracted(a, b extracted) int {
	return cmp.Or(
		cmp.Compare(a.page, b.page),
		cmp.Compare(len(a.id), len(b.id)),
		strings.Compare(a.id, b.id),
	)
}

// collectExtractedImages decodes the files pdfcpu wrote into dir. Names have
// the form <stem>_<page>_<id>.<ext>; anything else, and anything that does
// not decode, is skipped.
func collectExtractedImages(dir, stem string) ([]PageImage, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []extracted
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if page, id, err := parseExtractedName(de.Name(), stem); err == nil {
			files = append(files, extracted{page: page, id: id, path: filepath.Join(dir, de.Name())})
		}
	}
	slices.SortFunc(files, compareExtracted)

	images := make([]PageImage, 0, len(files))
	for _, f := range files {
		img, _, err := utils.LoadImage(f.path)
		if err != nil {
			continue
		}
		index := 0
		if n := len(images); n > 0 && images[n-1].Page == f.page {
			index = images[n-1].Index + 1
		}
		images = append(images, PageImage{Page: f.page, Index: index, Image: img})
	}
	return images, nil
}

var errNotExtracted = errors.New("not an extracted page image")

// parseExtractedName splits an extraction file name such as "scan_3_Im0.png"
// into its page number and image id.
func parseExtractedName(name, stem string) (int, string, error) {
	rest := strings.TrimSuffix(name, filepath.Ext(name))
	if stem != "" {
		var ok bool
		if rest, ok = strings.CutPrefix(rest, stem+"_"); !ok {
			return 0, "", errNotExtracted
		}
	}
	num, id, _ := strings.Cut(rest, "_")
	page, err := parsePage(num)
	if err != nil {
		return 0, "", errNotExtracted
	}
	return page, id, nil
}

// parsePageRange expands "1,3-5" into [1 3 4 5]. Blank means every page and
// yields nil.
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}
	var pages []int
	for part := range strings.SplitSeq(pageRange, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := parsePage(lo)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parsePage(hi); err != nil {
				return nil, err
			}
			if first > last {
				return nil, fmt.Errorf("start page %d greater than end page %d", first, last)
			}
		}
		for p := first; p <= last; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// parsePage reads a 1-based page number.
func parsePage(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("pages start at 1, got %d", n)
	}
	return n, nil
}
