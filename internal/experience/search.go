// AngelaMos | 2026
// search.go

package experience

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/omarkt13/seafable/internal/core"
)

const (
	SortPriceAsc       = "price_asc"
	SortPriceDesc      = "price_desc"
	SortRatingDesc     = "rating_desc"
	SortPopularityDesc = "popularity_desc"

	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 50
)

type SearchParams struct {
	Query        string   `json:"q"             validate:"max=200"`
	ActivityType string   `json:"activity_type" validate:"max=50"`
	Location     string   `json:"location"      validate:"max=200"`
	MinPrice     *float64 `json:"min_price"     validate:"omitempty,gte=0"`
	MaxPrice     *float64 `json:"max_price"     validate:"omitempty,gte=0"`
	MinRating    *float64 `json:"min_rating"    validate:"omitempty,gte=0,lte=5"`
	Guests       *int     `json:"guests"        validate:"omitempty,gte=1"`
	Sort         string   `json:"sort"          validate:"omitempty,oneof=price_asc price_desc rating_desc popularity_desc"`
	Page         int      `json:"page"          validate:"gte=1"`
	Limit        int      `json:"limit"         validate:"gte=1,lte=50"`
}

func (p SearchParams) withDefaults() SearchParams {
	if p.Sort == "" {
		p.Sort = SortPopularityDesc
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// ParseSearchParams reads and validates the query string. Every problem is
// reported in the returned error's details, keyed by parameter name.
func ParseSearchParams(q url.Values, validate *validator.Validate) (SearchParams, error) {
	p := SearchParams{
		Query:        strings.TrimSpace(q.Get("q")),
		ActivityType: strings.TrimSpace(q.Get("activity_type")),
		Location:     strings.TrimSpace(q.Get("location")),
		Sort:         strings.TrimSpace(q.Get("sort")),
		Page:         DefaultPage,
		Limit:        DefaultLimit,
	}

	details := make(map[string]string)

	p.MinPrice = parseFloat(q, "min_price", details)
	p.MaxPrice = parseFloat(q, "max_price", details)
	p.MinRating = parseFloat(q, "min_rating", details)
	p.Guests = parseInt(q, "guests", details)
	if page := parseInt(q, "page", details); page != nil {
		p.Page = *page
	}
	if limit := parseInt(q, "limit", details); limit != nil {
		p.Limit = *limit
	}

	if len(details) == 0 {
		if err := validate.Struct(p); err != nil {
			for field, msg := range core.ValidationDetails(err) {
				details[field] = msg
			}
		}
	}

	if p.MinPrice != nil && p.MaxPrice != nil && *p.MaxPrice < *p.MinPrice {
		details["max_price"] = "max_price must be greater than or equal to min_price"
	}

	if len(details) > 0 {
		return SearchParams{}, core.ValidationError("invalid search parameters", details)
	}

	return p, nil
}

func parseFloat(q url.Values, key string, details map[string]string) *float64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		details[key] = key + " must be a number"
		return nil
	}
	return &v
}

func parseInt(q url.Values, key string, details map[string]string) *int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		details[key] = key + " must be an integer"
		return nil
	}
	return &v
}
