package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smartreader/reader/pkg/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is the durable storage behind the reader: the translation
// cache, the book library and per-book reading progress. Everything lives
// in one sqlite file so the library survives restarts the way the browser
// original survived reloads.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// cacheKeyText normalizes the text component of a cache key: surrounding
// whitespace is stripped, casing and internal whitespace are preserved.
func cacheKeyText(text string) string {
	return strings.TrimSpace(text)
}

// GetTranslation looks up a cached translation. A storage error is treated
// as a miss so the caller falls through to the network.
func (s *SQLiteStore) GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	key := cacheKeyText(text)
	if key == "" {
		return "", false
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT translated_text
		 FROM translation_cache
		 WHERE source_lang = ? AND target_lang = ? AND source_text = ?`,
		sourceLang,
		targetLang,
		key,
	)
	var translated string
	if err := row.Scan(&translated); err != nil {
		if err != sql.ErrNoRows {
			log.Warn("Translation cache read failed, treating as miss: %v", err)
		}
		return "", false
	}
	return translated, true
}

// PutTranslation stores a resolved translation. Entries never expire and
// are never evicted; a duplicate put overwrites in place.
func (s *SQLiteStore) PutTranslation(ctx context.Context, text, sourceLang, targetLang, translated string) error {
	key := cacheKeyText(text)
	if key == "" || translated == "" {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO translation_cache (source_lang, target_lang, source_text, translated_text)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_lang, target_lang, source_text) DO UPDATE SET
			translated_text=excluded.translated_text`,
		sourceLang,
		targetLang,
		key,
		translated,
	)
	return err
}

func (s *SQLiteStore) SaveBook(ctx context.Context, rec BookRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("book id is required")
	}
	addedAt := rec.AddedAt.UTC()
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO books (id, title, format, data, added_at, last_read_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			format=excluded.format,
			data=excluded.data,
			last_read_at=excluded.last_read_at`,
		rec.ID,
		rec.Title,
		rec.Format,
		rec.Data,
		addedAt,
		nullableTime(rec.LastReadAt),
	)
	return err
}

func (s *SQLiteStore) GetBook(ctx context.Context, id string) (BookRecord, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, format, data, added_at, last_read_at FROM books WHERE id = ?`,
		id,
	)
	rec, err := scanBook(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return BookRecord{}, false, nil
		}
		return BookRecord{}, false, err
	}
	return rec, true, nil
}

// ListBooks returns library entries without their file blobs, most recently
// added first.
func (s *SQLiteStore) ListBooks(ctx context.Context) ([]BookRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, format, added_at, last_read_at FROM books ORDER BY added_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]BookRecord, 0)
	for rows.Next() {
		var rec BookRecord
		var lastRead sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Format, &rec.AddedAt, &lastRead); err != nil {
			return nil, err
		}
		if lastRead.Valid {
			rec.LastReadAt = lastRead.Time
		}
		ret = append(ret, rec)
	}
	return ret, rows.Err()
}

// DeleteBook removes a book and its reading progress. Cached translations
// stay: they are keyed by text, not by book.
func (s *SQLiteStore) DeleteBook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM progress WHERE book_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetProgress(ctx context.Context, bookID string) (Progress, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT book_id, chapter_index, scroll_offset, updated_at FROM progress WHERE book_id = ?`,
		bookID,
	)
	var p Progress
	if err := row.Scan(&p.BookID, &p.ChapterIndex, &p.ScrollOffset, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Progress{}, false, nil
		}
		return Progress{}, false, err
	}
	return p, true, nil
}

// SetProgress records the most recent confirmed reading position and bumps
// the book's last-read timestamp.
func (s *SQLiteStore) SetProgress(ctx context.Context, bookID string, chapterIndex int, scrollOffset float64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO progress (book_id, chapter_index, scroll_offset, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(book_id) DO UPDATE SET
			chapter_index=excluded.chapter_index,
			scroll_offset=excluded.scroll_offset,
			updated_at=excluded.updated_at`,
		bookID,
		chapterIndex,
		scrollOffset,
		now,
	)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE books SET last_read_at = ? WHERE id = ?`, now, bookID)
	return err
}

func scanBook(row *sql.Row) (BookRecord, error) {
	var rec BookRecord
	var lastRead sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Format, &rec.Data, &rec.AddedAt, &lastRead); err != nil {
		return BookRecord{}, err
	}
	if lastRead.Valid {
		rec.LastReadAt = lastRead.Time
	}
	return rec, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
