package feed

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

type Item struct {
	GUID        string
	Title       string
	Description string
	Categories  []string
	Published   string // Raw publish date exactly as the feed wrote it
	Link        string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Keywords []string       `yaml:"keywords"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled    bool   `yaml:"enabled"`
	Timeout    int    `yaml:"timeout"`     // seconds
	DateFormat string `yaml:"date_format"` // Go time layout of item publish dates
}
