package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smartreader/reader/internal/ingest"
	"github.com/smartreader/reader/internal/storage"
	"github.com/smartreader/reader/pkg/file"
	"github.com/smartreader/reader/pkg/log"
)

// importCmd adds a book file to the library
var importCmd = &cobra.Command{
	Use:   "import [file-or-directory]",
	Short: "Add books to the library",
	Long: `Parse a book file (EPUB, FB2, TXT, or a ZIP holding one) and store it
in the library database. Given a directory, every book file inside it is
imported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		paths := []string{args[0]}
		if info.IsDir() {
			paths, err = file.FindBooks(args[0])
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", args[0], err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no book files found in %s", args[0])
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range paths {
			if err := importBook(cmd, store, path); err != nil {
				if !info.IsDir() {
					return err
				}
				log.Warn("skipping %s: %v", path, err)
			}
		}
		return nil
	},
}

func importBook(cmd *cobra.Command, store *storage.SQLiteStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	b, err := ingest.Open(filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	rec := storage.BookRecord{
		ID:     uuid.NewString(),
		Title:  b.Title(),
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Data:   data,
	}
	if err := store.SaveBook(cmd.Context(), rec); err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}

	fmt.Printf("Imported %q (%s, %d chapters)\n", b.Title(), rec.ID, len(b.Chapters()))
	return nil
}

// listCmd shows the library with reading progress
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		books, err := store.ListBooks(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		if len(books) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}

		for _, b := range books {
			line := fmt.Sprintf("%s  %-10s %s", b.ID, b.Format, b.Title)
			if progress, ok, err := store.GetProgress(cmd.Context(), b.ID); err == nil && ok {
				line += fmt.Sprintf("  (chapter %d)", progress.ChapterIndex+1)
			}
			fmt.Println(line)
		}
		return nil
	},
}

// deleteCmd removes a book and its progress
var deleteCmd = &cobra.Command{
	Use:   "delete [book-id]",
	Short: "Remove a book from the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteBook(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		fmt.Println("Deleted.")
		return nil
	},
}
