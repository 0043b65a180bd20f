package storage

import "time"

// BookRecord is a library entry: the raw book file plus display metadata.
type BookRecord struct {
	ID         string
	Title      string
	Format     string
	Data       []byte
	AddedAt    time.Time
	LastReadAt time.Time
}

// Progress is the persisted reading position for one book.
type Progress struct {
	BookID       string
	ChapterIndex int
	ScrollOffset float64
	UpdatedAt    time.Time
}
