// Package catalog models search results from the external media catalog and
// ranks them for presentation.
package catalog

import "strconv"

// MediaType is the discriminator carried by every search result.
type MediaType string

// Media types returned by the catalog's multi-search.
const (
	MediaMovie  MediaType = "movie"
	MediaTV     MediaType = "tv"
	MediaPerson MediaType = "person"
)

// Listable reports whether results of this type may be stored in a list.
func (m MediaType) Listable() bool {
	return m == MediaMovie || m == MediaTV
}

// Group returns the display group heading for the media type.
func (m MediaType) Group() string {
	switch m {
	case MediaMovie:
		return "Movies"
	case MediaTV:
		return "TV Shows"
	default:
		return ""
	}
}

// Result is one entry of a multi-search response. The set of implementations
// is closed: *Movie, *TVShow and *Person.
type Result interface {
	MediaType() MediaType
	ResultID() int64
	DisplayName() string
	isResult()
}

// Movie is a movie search result.
type Movie struct {
	Type             MediaType `json:"media_type"`
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	Overview         string    `json:"overview"`
	PosterPath       *string   `json:"poster_path"`
	BackdropPath     *string   `json:"backdrop_path"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	Popularity       float64   `json:"popularity"`
	VoteCount        int64     `json:"vote_count"`
	VoteAverage      float64   `json:"vote_average"`
	Adult            bool      `json:"adult,omitempty"`
}

// TVShow is a television search result.
type TVShow struct {
	Type             MediaType `json:"media_type"`
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	OriginalName     string    `json:"original_name,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	Overview         string    `json:"overview"`
	PosterPath       *string   `json:"poster_path"`
	BackdropPath     *string   `json:"backdrop_path"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	OriginCountry    []string  `json:"origin_country,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	Popularity       float64   `json:"popularity"`
	VoteCount        int64     `json:"vote_count"`
	VoteAverage      float64   `json:"vote_average"`
}

// Person is a cast or crew search result. It can be searched but never listed.
type Person struct {
	Type               MediaType `json:"media_type"`
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	KnownForDepartment string    `json:"known_for_department,omitempty"`
	ProfilePath        *string   `json:"profile_path"`
	Popularity         float64   `json:"popularity"`
}

func (*Movie) MediaType() MediaType  { return MediaMovie }
func (*TVShow) MediaType() MediaType { return MediaTV }
func (*Person) MediaType() MediaType { return MediaPerson }

func (m *Movie) ResultID() int64  { return m.ID }
func (t *TVShow) ResultID() int64 { return t.ID }
func (p *Person) ResultID() int64 { return p.ID }

func (m *Movie) DisplayName() string  { return m.Title }
func (t *TVShow) DisplayName() string { return t.Name }
func (p *Person) DisplayName() string { return p.Name }

func (*Movie) isResult()  {}
func (*TVShow) isResult() {}
func (*Person) isResult() {}

// Year returns the release year, or "" when unknown.
func (m *Movie) Year() string { return yearOf(m.ReleaseDate) }

// Year returns the first air year, or "" when unknown.
func (t *TVShow) Year() string { return yearOf(t.FirstAirDate) }

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// Stats holds the ranking signals shared by listable results.
type Stats struct {
	Popularity  float64
	VoteCount   int64
	VoteAverage float64
}

// StatsOf returns the ranking signals of r. ok is false for non-listable results.
func StatsOf(r Result) (Stats, bool) {
	switch v := r.(type) {
	case *Movie:
		if v == nil {
			return Stats{}, false
		}
		return Stats{Popularity: v.Popularity, VoteCount: v.VoteCount, VoteAverage: v.VoteAverage}, true
	case *TVShow:
		if v == nil {
			return Stats{}, false
		}
		return Stats{Popularity: v.Popularity, VoteCount: v.VoteCount, VoteAverage: v.VoteAverage}, true
	default:
		return Stats{}, false
	}
}
