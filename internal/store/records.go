package store

import "time"

// TimestampField is the document field stamped on every write.
const TimestampField = "@timestamp"

// Rating is the catalog vote summary.
type Rating struct {
	Votes   int64   `json:"votes"`
	Average float64 `json:"average"`
}

// Credits holds people names by role. Actors are ordered by billing.
type Credits struct {
	Actor    []string `json:"actor,omitempty"`
	Director []string `json:"director,omitempty"`
	Other    []string `json:"other,omitempty"`
}

// IDs are the external identifiers of a record.
type IDs struct {
	TMDB int64 `json:"tmdb"`
}

// TitleRecord is a cached movie or TV show. Year zero means unknown.
type TitleRecord struct {
	Title       string    `json:"title"`
	Alias       []string  `json:"alias,omitempty"`
	Language    string    `json:"language,omitempty"`
	Year        int       `json:"year,omitempty"`
	YearOther   []int     `json:"year_other,omitempty"`
	Genre       []int     `json:"genre,omitempty"`
	Country     []string  `json:"country,omitempty"`
	Rating      *Rating   `json:"rating,omitempty"`
	Popularity  float64   `json:"popularity"`
	Credits     Credits   `json:"credits"`
	Description string    `json:"description,omitempty"`
	Tagline     string    `json:"tagline,omitempty"`
	Image       string    `json:"image,omitempty"`
	IDs         IDs       `json:"ids"`
	Timestamp   time.Time `json:"@timestamp"`
}

// SearchAttempt records that a remote title or person search ran. Year is -1
// when the search had no year.
type SearchAttempt struct {
	Title     string    `json:"title,omitempty"`
	Person    string    `json:"person,omitempty"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"@timestamp"`
}

// NoYear is the SearchAttempt year used when the request had none.
const NoYear = -1

// StubEpisode marks a season that was fetched but had no aired episodes.
const StubEpisode = -1

// EpisodeRecord is a cached TV episode, or a season stub when Episode is
// StubEpisode.
type EpisodeRecord struct {
	TVShowID    int64     `json:"tvshow_id"`
	Season      int       `json:"season"`
	Episode     int       `json:"episode"`
	Title       string    `json:"title,omitempty"`
	AirDate     string    `json:"air_date,omitempty"`
	AirYear     int       `json:"air_year,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Rating      *Rating   `json:"rating,omitempty"`
	IDs         *IDs      `json:"ids,omitempty"`
	Timestamp   time.Time `json:"@timestamp"`
}

// IsStub reports whether the record is a season stub.
func (e EpisodeRecord) IsStub() bool { return e.Episode == StubEpisode }

// TitleHit is a scored title record.
type TitleHit struct {
	ID     string
	Score  float64
	Record TitleRecord
}

// AttemptHit is a stored search attempt and its id.
type AttemptHit struct {
	ID     string
	Record SearchAttempt
}

// EpisodeHit is a scored episode record.
type EpisodeHit struct {
	ID     string
	Score  float64
	Record EpisodeRecord
}
