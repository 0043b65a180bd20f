package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// bookExtensions are the file types the reader can ingest.
var bookExtensions = map[string]bool{
	".epub": true,
	".fb2":  true,
	".txt":  true,
	".zip":  true,
}

// FindBooks walks dir and returns every book file found, sorted by path.
func FindBooks(dir string) ([]string, error) {
	var books []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && bookExtensions[strings.ToLower(filepath.Ext(path))] {
			books = append(books, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(books)
	return books, nil
}
