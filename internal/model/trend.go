// internal/model/trend.go
package model

type TrendSource string

const (
	SourceGoogleTrends TrendSource = "google_trends"
	SourceNews         TrendSource = "news"
	SourceX            TrendSource = "x"
)

type TrendItem struct {
	Source      TrendSource `json:"source"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Score       float64     `json:"score"`
	URL         string      `json:"url"`
	Category    string      `json:"category,omitempty"`
}

// TrendData is the aggregated view over every trend source.
type TrendData struct {
	GoogleTrends []TrendItem `json:"google_trends"`
	News         []TrendItem `json:"news"`
	XBuzz        []TrendItem `json:"x_buzz"`
	All          []TrendItem `json:"all,omitempty"`
	TopKeywords  []string    `json:"top_keywords"`
}
