package entity

import "time"

type Article struct {
	ID          int64
	Title       string
	Preview     string
	PublishedAt time.Time
}

// IndexStats are the aggregate counters shown on the landing page.
type IndexStats struct {
	TotalMailings  int64
	ActiveMailings int64
	UniqueClients  int64
	Articles       []Article
}
