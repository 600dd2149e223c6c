package tmdb

import "strconv"

// Details is the movie or TV show payload returned by the details, search,
// discover and person-credit endpoints. Movie and TV use different field
// names for the same concept; Text selects one by its JSON name.
type Details struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Name                string    `json:"name"`
	OriginalTitle       string    `json:"original_title"`
	OriginalName        string    `json:"original_name"`
	ReleaseDate         string    `json:"release_date"`
	FirstAirDate        string    `json:"first_air_date"`
	OriginalLanguage    string    `json:"original_language"`
	Overview            string    `json:"overview"`
	Tagline             string    `json:"tagline"`
	Popularity          float64   `json:"popularity"`
	VoteAverage         float64   `json:"vote_average"`
	VoteCount           int64     `json:"vote_count"`
	Genres              []Genre   `json:"genres"`
	GenreIDs            []int     `json:"genre_ids"`
	ProductionCountries []Country `json:"production_countries"`
	OriginCountry       []string  `json:"origin_country"`
}

// Text returns the string field with the given JSON name.
func (d Details) Text(field string) string {
	switch field {
	case "title":
		return d.Title
	case "name":
		return d.Name
	case "original_title":
		return d.OriginalTitle
	case "original_name":
		return d.OriginalName
	case "release_date":
		return d.ReleaseDate
	case "first_air_date":
		return d.FirstAirDate
	case "original_language":
		return d.OriginalLanguage
	case "overview":
		return d.Overview
	case "tagline":
		return d.Tagline
	}
	return ""
}

// Year parses the leading four digits of a YYYY-MM-DD date; zero when absent.
func Year(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Genre is a genre id and display name.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the payload of genre/{kind}/list.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// Country is an ISO 3166-1 entry as returned by details and configuration/countries.
type Country struct {
	Code        string `json:"iso_3166_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// Language is an ISO 639-1 entry from configuration/languages.
type Language struct {
	Code        string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// Configuration is the subset of the configuration payload used for image URLs.
type Configuration struct {
	Images struct {
		BaseURL       string   `json:"base_url"`
		SecureBaseURL string   `json:"secure_base_url"`
		PosterSizes   []string `json:"poster_sizes"`
	} `json:"images"`
}

// Page is a paginated list of titles (search and discover).
type Page struct {
	Page         int       `json:"page"`
	Results      []Details `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

// CastMember is one billed cast entry.
type CastMember struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CrewMember is one crew entry.
type CrewMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits is the payload of {kind}/{id}/credits.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// TranslationData holds the translated strings of one translation.
type TranslationData struct {
	Title    string `json:"title"`
	Name     string `json:"name"`
	Overview string `json:"overview"`
}

// Text returns the translated title for the given field name (title or name).
func (d TranslationData) Text(field string) string {
	if field == "name" {
		return d.Name
	}
	return d.Title
}

// Translation is a single language/country translation.
type Translation struct {
	Language string          `json:"iso_639_1"`
	Country  string          `json:"iso_3166_1"`
	Data     TranslationData `json:"data"`
}

// Translations is the payload of {kind}/{id}/translations.
type Translations struct {
	Translations []Translation `json:"translations"`
}

// AltTitle is an alternative title for a country.
type AltTitle struct {
	Country string `json:"iso_3166_1"`
	Title   string `json:"title"`
}

// AlternativeTitles is the payload of {kind}/{id}/alternative_titles. Movies
// list entries under "titles", TV shows under "results".
type AlternativeTitles struct {
	Titles  []AltTitle `json:"titles"`
	Results []AltTitle `json:"results"`
}

// List returns the entries stored under the given JSON name.
func (a AlternativeTitles) List(field string) []AltTitle {
	if field == "results" {
		return a.Results
	}
	return a.Titles
}

// ReleaseDate is one dated release in a country.
type ReleaseDate struct {
	ReleaseDate string `json:"release_date"`
	Type        int    `json:"type"`
}

// CountryReleases groups release dates by country.
type CountryReleases struct {
	Country      string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

// ReleaseDates is the payload of movie/{id}/release_dates.
type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// Image is a poster or backdrop.
type Image struct {
	AspectRatio float64 `json:"aspect_ratio"`
	FilePath    string  `json:"file_path"`
	Language    string  `json:"iso_639_1"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Images is the payload of {kind}/{id}/images.
type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Person is a search/person result.
type Person struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	KnownForDepartment string `json:"known_for_department"`
}

// PersonPage is the payload of search/person.
type PersonPage struct {
	Page         int      `json:"page"`
	Results      []Person `json:"results"`
	TotalResults int      `json:"total_results"`
}

// PersonCredit is a title a person worked on.
type PersonCredit struct {
	Details
	Job       string `json:"job"`
	Character string `json:"character"`
}

// PersonCredits is the payload of person/{id}/{kind}_credits.
type PersonCredits struct {
	Cast []PersonCredit `json:"cast"`
	Crew []PersonCredit `json:"crew"`
}

// Episode is one episode of a season payload.
type Episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	AirDate       string  `json:"air_date"`
	StillPath     string  `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
}

// Season is the payload of tv/{id}/season/{n}.
type Season struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}
