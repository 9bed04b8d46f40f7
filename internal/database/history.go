package database

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// HistoryItem is one executed statement in a workspace's query history
type HistoryItem struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Status     string    `json:"status"`
	ExecutedAt time.Time `json:"executedAt"`
	// Result is a one-line summary: the message, the error or the row count
	Result string `json:"result"`
}

// NewHistoryItem stamps a new history entry with a fresh id and the current time
func NewHistoryItem(query, status, result string) HistoryItem {
	return HistoryItem{
		ID:         uuid.NewString(),
		Query:      query,
		Status:     status,
		ExecutedAt: time.Now().UTC(),
		Result:     result,
	}
}
