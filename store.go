package sloth

import "context"

// ScanRequest asks a store for at most Limit records. When ResumeFrom is set
// the scan continues after that cursor and Offset is ignored.
type ScanRequest struct {
	Limit      int
	Offset     int
	ResumeFrom string
}

// ScanResult holds the records of one scan and a cursor positioned after the
// last of them. End may be nil when Items is empty.
type ScanResult[T any] struct {
	Items []T
	End   Cursor
}

// Store is the Content Store as seen by the Paginator.
type Store[T any] interface {
	Scan(ctx context.Context, q Query, req ScanRequest) (ScanResult[T], error)
	Count(ctx context.Context, q Query) (int64, error)
}

// Getters maps column names to accessors of a record. Stores use them to
// evaluate filters and to build keyset cursors.
//
//	sloth.Getters[blog.Post]{
//		"id":           func(p blog.Post) any { return p.ID },
//		"published_at": func(p blog.Post) any { return p.PublishedAt },
//	}
type Getters[T any] map[string]func(T) any
