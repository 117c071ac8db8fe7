// AngelaMos | 2026
// entity.go

package experience

import (
	"time"
)

const (
	ActivitySailing        = "sailing"
	ActivityDiving         = "diving"
	ActivityFishing        = "fishing"
	ActivitySurfing        = "surfing"
	ActivityKayaking       = "kayaking"
	ActivitySnorkeling     = "snorkeling"
	ActivityPaddleboarding = "paddleboarding"
	ActivityJetSki         = "jet_ski"
)

type Experience struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ActivityType  string    `json:"activity_type"`
	Location      string    `json:"location"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	DurationHours float64   `json:"duration_hours"`
	MaxGuests     int       `json:"max_guests"`
	HostName      string    `json:"host_name"`
	HostRating    float64   `json:"host_rating"`
	TotalReviews  int       `json:"total_reviews"`
	TotalBookings int       `json:"total_bookings"`
	Tags          []string  `json:"tags"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}
