// internal/model/genre.go
package model

import (
	"strings"
	"time"
)

type Genre struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Name      string    `db:"genre_name" json:"genre_name"`
	Keywords  []string  `db:"keywords" json:"keywords"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NormalizeKeywords trims blanks and drops duplicates, keeping first occurrence.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
