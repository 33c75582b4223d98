package model

import "time"

// HistoryEntry records one successful search.
type HistoryEntry struct {
	ID           string    `json:"id"`
	UserID       *int64    `json:"user_id"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	TopTitle     *string   `json:"top_title"`
	TopLink      *string   `json:"top_link"`
	TopThumbnail *string   `json:"top_thumbnail"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryPage is one page of history entries, newest first.
type HistoryPage struct {
	Data        []HistoryEntry `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int            `json:"total"`
	LastPage    int            `json:"last_page"`
}

// NewHistoryPage fills in the derived pagination fields.
func NewHistoryPage(entries []HistoryEntry, page, perPage, total int) HistoryPage {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return HistoryPage{
		Data:        entries,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}
}
