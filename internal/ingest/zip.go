package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// zipBookExtensions in preference order when an archive holds several
// candidate files.
var zipBookExtensions = []string{".epub", ".fb2", ".txt"}

// OpenZip opens the first book file found inside a generic zip archive.
// EPUB files are themselves zip archives, so this only runs for .zip names.
func OpenZip(filename string, data []byte) (Book, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrParse, err)
	}
	names := make([]string, 0, len(zr.File))
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
		byName[f.Name] = f
	}
	sort.Strings(names)

	for _, ext := range zipBookExtensions {
		for _, name := range names {
			if strings.ToLower(path.Ext(name)) != ext {
				continue
			}
			rc, err := byName[name].Open()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
			}
			inner, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
			}
			return Open(name, inner)
		}
	}
	return nil, fmt.Errorf("%w: archive %s holds no book file", ErrUnsupportedFormat, filename)
}
