// AngelaMos | 2026
// catalog.go

package experience

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omarkt13/seafable/internal/core"
)

// Catalog is an in-memory, read-only set of experiences. It is built once
// at startup and safe for concurrent readers.
type Catalog struct {
	items []Experience
	byID  map[string]int
}

func NewCatalog(items []Experience) *Catalog {
	c := &Catalog{
		items: slices.Clone(items),
		byID:  make(map[string]int, len(items)),
	}
	for i, e := range c.items {
		c.byID[e.ID] = i
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Get(id string) (Experience, error) {
	i, ok := c.byID[id]
	if !ok {
		return Experience{}, fmt.Errorf("experience %s: %w", id, core.ErrNotFound)
	}
	return c.items[i], nil
}

// Search filters, sorts and pages the catalog. total is the number of
// matches before paging.
func (c *Catalog) Search(p SearchParams) (page []Experience, total int) {
	p = p.withDefaults()

	matches := make([]Experience, 0, len(c.items))
	for _, e := range c.items {
		if p.matches(e) {
			matches = append(matches, e)
		}
	}

	slices.SortStableFunc(matches, comparator(p.Sort))

	total = len(matches)
	pages := (total + p.Limit - 1) / p.Limit
	if p.Page > pages {
		return []Experience{}, total
	}
	start := (p.Page - 1) * p.Limit
	end := min(start+p.Limit, total)

	return matches[start:end], total
}

func (p SearchParams) matches(e Experience) bool {
	if p.ActivityType != "" && !strings.EqualFold(e.ActivityType, p.ActivityType) {
		return false
	}
	if p.Location != "" && !containsFold(e.Location, p.Location) {
		return false
	}
	if p.MinPrice != nil && e.Price < *p.MinPrice {
		return false
	}
	if p.MaxPrice != nil && e.Price > *p.MaxPrice {
		return false
	}
	if p.MinRating != nil && e.HostRating < *p.MinRating {
		return false
	}
	if p.Guests != nil && e.MaxGuests < *p.Guests {
		return false
	}
	if p.Query != "" && !matchesText(e, p.Query) {
		return false
	}
	return true
}

func matchesText(e Experience, q string) bool {
	fields := []string{e.Title, e.Description, e.Location, e.HostName}
	for _, f := range fields {
		if containsFold(f, q) {
			return true
		}
	}
	for _, tag := range e.Tags {
		if containsFold(tag, q) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func comparator(sort string) func(a, b Experience) int {
	var primary func(a, b Experience) int
	switch sort {
	case SortPriceAsc:
		primary = func(a, b Experience) int { return cmpFloat(a.Price, b.Price) }
	case SortPriceDesc:
		primary = func(a, b Experience) int { return cmpFloat(b.Price, a.Price) }
	case SortRatingDesc:
		primary = func(a, b Experience) int {
			if c := cmpFloat(b.HostRating, a.HostRating); c != 0 {
				return c
			}
			return b.TotalReviews - a.TotalReviews
		}
	default:
		primary = func(a, b Experience) int { return b.TotalBookings - a.TotalBookings }
	}

	return func(a, b Experience) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var seedNamespace = uuid.MustParse("6f1d3c52-7d0e-4a8c-9b8e-5c2a9f3d1e70")

func seeded(e Experience) Experience {
	e.ID = uuid.NewSHA1(seedNamespace, []byte(e.Title)).String()
	if e.Currency == "" {
		e.Currency = "USD"
	}
	return e
}

// SeedCatalog returns the mock catalogue served until experiences are
// stored in the database.
func SeedCatalog() *Catalog {
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	items := []Experience{
		{
			Title:         "Sunset Sailing on the Bay",
			Description:   "Two hours under sail with drinks as the sun goes down.",
			ActivityType:  ActivitySailing,
			Location:      "San Francisco, CA",
			Price:         95,
			DurationHours: 2,
			MaxGuests:     8,
			HostName:      "Golden Gate Charters",
			HostRating:    4.9,
			TotalReviews:  214,
			TotalBookings: 1320,
			Tags:          []string{"sunset", "romantic", "drinks"},
		},
		{
			Title:         "Reef Discovery Dive",
			Description:   "Guided two-tank dive over a living coral reef. Certification required.",
			ActivityType:  ActivityDiving,
			Location:      "Key Largo, FL",
			Price:         180,
			DurationHours: 4,
			MaxGuests:     6,
			HostName:      "Blue Hole Divers",
			HostRating:    4.8,
			TotalReviews:  167,
			TotalBookings: 890,
			Tags:          []string{"reef", "certified", "wildlife"},
		},
		{
			Title:         "Deep Sea Fishing Charter",
			Description:   "Full-day offshore trip for tuna and mahi-mahi. Gear included.",
			ActivityType:  ActivityFishing,
			Location:      "Destin, FL",
			Price:         450,
			DurationHours: 8,
			MaxGuests:     6,
			HostName:      "Reel Deal Fishing",
			HostRating:    4.7,
			TotalReviews:  98,
			TotalBookings: 410,
			Tags:          []string{"offshore", "tuna", "full-day"},
		},
		{
			Title:         "Beginner Surf Lesson",
			Description:   "Learn to pop up and ride your first wave with a certified instructor.",
			ActivityType:  ActivitySurfing,
			Location:      "San Diego, CA",
			Price:         75,
			DurationHours: 2,
			MaxGuests:     4,
			HostName:      "Pacific Swell Surf School",
			HostRating:    4.9,
			TotalReviews:  321,
			TotalBookings: 2100,
			Tags:          []string{"beginner", "lesson", "family"},
		},
		{
			Title:         "Mangrove Kayak Tour",
			Description:   "Paddle through quiet mangrove tunnels and spot manatees.",
			ActivityType:  ActivityKayaking,
			Location:      "Tampa, FL",
			Price:         55,
			DurationHours: 3,
			MaxGuests:     12,
			HostName:      "Gulf Coast Paddlers",
			HostRating:    4.6,
			TotalReviews:  142,
			TotalBookings: 760,
			Tags:          []string{"wildlife", "eco", "family"},
		},
		{
			Title:         "Snorkel with Sea Turtles",
			Description:   "Boat trip to a turtle cleaning station with all snorkel gear provided.",
			ActivityType:  ActivitySnorkeling,
			Location:      "Maui, HI",
			Price:         120,
			DurationHours: 3,
			MaxGuests:     20,
			HostName:      "Aloha Ocean Adventures",
			HostRating:    4.8,
			TotalReviews:  402,
			TotalBookings: 2450,
			Tags:          []string{"turtles", "wildlife", "family"},
		},
		{
			Title:         "Stand-Up Paddleboard Yoga",
			Description:   "A gentle yoga flow on the water at sunrise.",
			ActivityType:  ActivityPaddleboarding,
			Location:      "Austin, TX",
			Price:         45,
			DurationHours: 1.5,
			MaxGuests:     10,
			HostName:      "Lady Bird Lake SUP",
			HostRating:    4.5,
			TotalReviews:  88,
			TotalBookings: 530,
			Tags:          []string{"yoga", "sunrise", "wellness"},
		},
		{
			Title:         "Jet Ski Island Hop",
			Description:   "Guided jet ski ride past three islands with a beach stop.",
			ActivityType:  ActivityJetSki,
			Location:      "Miami, FL",
			Price:         210,
			DurationHours: 2,
			MaxGuests:     2,
			HostName:      "Biscayne Thrill Rides",
			HostRating:    4.4,
			TotalReviews:  76,
			TotalBookings: 640,
			Tags:          []string{"adrenaline", "islands"},
		},
		{
			Title:         "Classic Schooner Day Sail",
			Description:   "Help raise the sails on a restored 1920s schooner.",
			ActivityType:  ActivitySailing,
			Location:      "Mystic, CT",
			Price:         140,
			DurationHours: 5,
			MaxGuests:     24,
			HostName:      "Mystic Seaport Sailing",
			HostRating:    4.7,
			TotalReviews:  133,
			TotalBookings: 720,
			Tags:          []string{"historic", "hands-on"},
		},
		{
			Title:         "Night Dive with Manta Rays",
			Description:   "Watch mantas feed under lights on this famous night dive.",
			ActivityType:  ActivityDiving,
			Location:      "Kona, HI",
			Price:         195,
			DurationHours: 3,
			MaxGuests:     8,
			HostName:      "Kona Night Divers",
			HostRating:    4.9,
			TotalReviews:  289,
			TotalBookings: 1150,
			Tags:          []string{"night", "manta", "wildlife"},
		},
		{
			Title:         "Fly Fishing the Flats",
			Description:   "Sight-cast for bonefish and permit with a local guide.",
			ActivityType:  ActivityFishing,
			Location:      "Islamorada, FL",
			Price:         550,
			DurationHours: 6,
			MaxGuests:     2,
			HostName:      "Flats Masters Guiding",
			HostRating:    5.0,
			TotalReviews:  41,
			TotalBookings: 150,
			Tags:          []string{"fly fishing", "bonefish", "guided"},
		},
		{
			Title:         "Sea Kayak Whale Watch",
			Description:   "Paddle alongside migrating gray whales with an expert naturalist.",
			ActivityType:  ActivityKayaking,
			Location:      "Monterey, CA",
			Price:         110,
			DurationHours: 3.5,
			MaxGuests:     10,
			HostName:      "Monterey Bay Kayaks",
			HostRating:    4.8,
			TotalReviews:  188,
			TotalBookings: 980,
			Tags:          []string{"whales", "wildlife", "naturalist"},
		},
		{
			Title:         "Big Wave Surf Clinic",
			Description:   "Advanced coaching for experienced surfers on the North Shore.",
			ActivityType:  ActivitySurfing,
			Location:      "Oahu, HI",
			Price:         260,
			DurationHours: 4,
			MaxGuests:     3,
			HostName:      "North Shore Surf Coaching",
			HostRating:    4.6,
			TotalReviews:  52,
			TotalBookings: 210,
			Tags:          []string{"advanced", "coaching"},
		},
		{
			Title:         "Family Snorkel Cove",
			Description:   "Calm shallow cove perfect for first-time snorkelers and kids.",
			ActivityType:  ActivitySnorkeling,
			Location:      "St. John, USVI",
			Price:         65,
			DurationHours: 2,
			MaxGuests:     15,
			HostName:      "Cinnamon Bay Outfitters",
			HostRating:    4.5,
			TotalReviews:  117,
			TotalBookings: 870,
			Tags:          []string{"family", "beginner", "calm"},
		},
	}

	for i := range items {
		items[i].CreatedAt = base.AddDate(0, 0, i*7)
		items[i] = seeded(items[i])
	}

	return NewCatalog(items)
}
