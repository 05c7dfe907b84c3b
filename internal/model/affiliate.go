// internal/model/affiliate.go
package model

import "time"

type AffiliateAccount struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"-"`
	Platform   string    `db:"platform" json:"platform"`
	TrackingID string    `db:"tracking_id" json:"tracking_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type AffiliateOffer struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"-"`
	Title        string    `db:"title" json:"title"`
	AffiliateURL string    `db:"affiliate_url" json:"affiliate_url"`
	Genre        string    `db:"genre" json:"genre,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PickOffer returns the first offer tagged with genre, else the first untagged one.
func PickOffer(offers []AffiliateOffer, genre string) *AffiliateOffer {
	var fallback *AffiliateOffer
	for i := range offers {
		switch offers[i].Genre {
		case genre:
			if genre != "" {
				return &offers[i]
			}
			if fallback == nil {
				fallback = &offers[i]
			}
		case "":
			if fallback == nil {
				fallback = &offers[i]
			}
		}
	}
	return fallback
}

type ShortLink struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	OriginalURL string    `db:"original_url" json:"original_url"`
	ShortCode   string    `db:"short_code" json:"short_code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type AffiliateStats struct {
	TotalClicks  int              `json:"total_clicks"`
	TotalRevenue float64          `json:"total_revenue"`
	CTR          float64          `json:"ctr"`
	Offers       []AffiliateOffer `json:"offers"`
}

type DashboardStats struct {
	TotalPosts   int     `json:"total_posts"`
	TotalClicks  int     `json:"total_clicks"`
	TotalRevenue float64 `json:"total_revenue"`
	CTR          float64 `json:"ctr"`
	RecentPosts  []Post  `json:"recent_posts"`
}
