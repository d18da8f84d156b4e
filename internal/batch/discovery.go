package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// inputFilter selects scan inputs by base name. Globs are matched without
// regard to case, and an exclude hit always wins.
type inputFilter struct {
	include []string
	exclude []string
}

func newInputFilter(include, exclude []string) inputFilter {
	lower := func(globs []string) []string {
		out := make([]string, len(globs))
		for i, g := range globs {
			out[i] = strings.ToLower(g)
		}
		return out
	}
	return inputFilter{include: lower(include), exclude: lower(exclude)}
}

func (f inputFilter) accepts(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	hit := func(globs []string) bool {
		return slices.ContainsFunc(globs, func(g string) bool {
			ok, _ := filepath.Match(g, name)
			return ok
		})
	}
	if hit(f.exclude) {
		return false
	}
	return len(f.include) == 0 || hit(f.include)
}

// scannable reports whether a file found inside a directory is worth
// scanning: a supported image or a PDF that passes the filter.
func (f inputFilter) scannable(path string) bool {
	return (utils.IsSupportedImage(path) || isPDF(path)) && f.accepts(path)
}

// discoverInputs expands args into the files to scan. Explicit files skip the
// extension check so an unreadable one fails loudly later. Directories
// contribute their sorted contents. Duplicates are dropped, first one wins.
func discoverInputs(args []string, recursive bool, filter inputFilter) ([]string, error) {
	var found []string
	seen := make(map[string]struct{})
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		candidates := []string{arg}
		if info.IsDir() {
			if candidates, err = walkInputs(arg, recursive, filter); err != nil {
				return nil, err
			}
		} else if !filter.accepts(arg) {
			continue
		}

		for _, c := range candidates {
			c = filepath.Clean(c)
			if _, dup := seen[c]; !dup {
				seen[c] = struct{}{}
				found = append(found, c)
			}
		}
	}
	return found, nil
}

// walkInputs lists scannable files under root. Hidden directories are never
// entered and subdirectories only when recursive is set.
func walkInputs(root string, recursive bool, filter inputFilter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && path == root:
			return nil
		case d.IsDir() && (!recursive || strings.HasPrefix(d.Name(), ".")):
			return filepath.SkipDir
		case !d.IsDir() && filter.scannable(path):
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}
