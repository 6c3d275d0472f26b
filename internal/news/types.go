// Package news holds the core domain types shared across the service.
package news

import (
	"fmt"
	"time"
)

// Category is a headline category understood by the upstream news API.
type Category string

// Known categories. CategoryAll is the wildcard meaning "no restriction".
const (
	CategoryAll           Category = "all"
	CategoryGeneral       Category = "general"
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
)

// Country is an ISO 3166-1 alpha-2 country code we ingest headlines for.
type Country string

// Known countries. CountryAll is the wildcard meaning "no restriction".
const (
	CountryAll Country = "all"
	CountryIN  Country = "in"
	CountryUS  Country = "us"
	CountryGB  Country = "gb"
)

var allCategories = []Category{
	CategoryGeneral,
	CategoryBusiness,
	CategoryTechnology,
	CategorySports,
	CategoryEntertainment,
	CategoryHealth,
	CategoryScience,
}

var allCountries = []Country{CountryIN, CountryUS, CountryGB}

// Categories returns the fixed list of concrete categories, wildcard excluded.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Countries returns the fixed list of concrete country codes, wildcard excluded.
func Countries() []Country {
	out := make([]Country, len(allCountries))
	copy(out, allCountries)
	return out
}

// ParseCategory validates a raw category value, wildcard included.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c == CategoryAll {
		return c, nil
	}
	for _, known := range allCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
}

// ParseCountry validates a raw country value, wildcard included.
func ParseCountry(s string) (Country, error) {
	c := Country(s)
	if c == CountryAll {
		return c, nil
	}
	for _, known := range allCountries {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown country %q", ErrInvalidInput, s)
}

// Expand resolves the wildcard to the full category list; a concrete value
// expands to itself.
func (c Category) Expand() []Category {
	if c == CategoryAll || c == "" {
		return Categories()
	}
	return []Category{c}
}

// Expand resolves the wildcard to the full country list; a concrete value
// expands to itself.
func (c Country) Expand() []Country {
	if c == CountryAll || c == "" {
		return Countries()
	}
	return []Country{c}
}

// Source identifies where an article came from. ID is null for outlets the
// upstream does not assign one to.
type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Article is one stored headline. URL is the uniqueness key: re-ingesting an
// article with the same URL overwrites its fields.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
	Category    Category  `json:"category"`
	Country     Country   `json:"country"`
	Source      Source    `json:"source"`
}

// ListFilter narrows an article listing. Zero values (and the wildcard) mean
// no restriction; a non-zero Day restricts to that calendar day.
type ListFilter struct {
	Category Category
	Country  Country
	Day      time.Time
}

// DayOf truncates t to midnight in t's location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
