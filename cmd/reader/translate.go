package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartreader/reader/internal/book"
	"github.com/smartreader/reader/internal/ingest"
	"github.com/smartreader/reader/internal/scheduler"
	"github.com/smartreader/reader/internal/translate"
	"github.com/smartreader/reader/pkg/log"
)

var translateChapter int

// translateCmd translates one chapter of a library book to stdout. Results
// go through the shared translation cache, so repeated runs cost nothing.
var translateCmd = &cobra.Command{
	Use:   "translate [book-id]",
	Short: "Translate a chapter of a library book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, ok, err := store.GetBook(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load book: %w", err)
		}
		if !ok {
			return fmt.Errorf("book %s not found", args[0])
		}

		b, err := ingest.Open(rec.Title+"."+rec.Format, rec.Data)
		if err != nil {
			return fmt.Errorf("failed to parse book: %w", err)
		}
		chapters := b.Chapters()
		if translateChapter < 1 || translateChapter > len(chapters) {
			return fmt.Errorf("chapter %d out of range, book has %d", translateChapter, len(chapters))
		}

		seeds, err := b.ChapterParagraphs(translateChapter - 1)
		if err != nil {
			log.Warn("chapter extraction failed: %v", err)
			seeds = ingest.ErrorParagraph(err)
		}

		model := book.NewModel()
		model.LoadChapter(translateChapter-1, seeds)

		backend := translate.NewClient(translate.Config{
			Endpoint: cfg.Translate.Endpoint,
			Timeout:  time.Duration(cfg.Translate.Timeout) * time.Second,
		})
		sched := scheduler.New(model, store, backend,
			cfg.Translate.SourceLanguage.String(), cfg.Translate.TargetLanguage.String())

		fmt.Printf("%s — %s\n\n", rec.Title, chapters[translateChapter-1].Title)
		for _, p := range model.Snapshot() {
			if !p.Translatable() {
				fmt.Printf("[image: %s]\n\n", p.ImageURL)
				continue
			}
			translated, err := sched.TranslateNow(cmd.Context(), p.Index)
			if err != nil {
				log.Warn("paragraph %d failed: %v", p.Index, err)
				fmt.Printf("%s\n→ (translation failed)\n\n", p.Source)
				continue
			}
			fmt.Printf("%s\n→ %s\n\n", p.Source, translated)
		}
		sched.Wait()
		return nil
	},
}

func init() {
	translateCmd.Flags().IntVarP(&translateChapter, "chapter", "c", 1, "chapter number to translate")
}
