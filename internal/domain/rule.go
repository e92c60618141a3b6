package domain

import "time"

// CategoryRule maps a description keyword to a category. Among matching
// rules the highest Priority wins.
type CategoryRule struct {
	ID        string    `json:"id" yaml:"-"`
	Keyword   string    `json:"keyword" yaml:"keyword"`
	Category  string    `json:"category" yaml:"category"`
	Priority  int       `json:"priority" yaml:"priority"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
}
