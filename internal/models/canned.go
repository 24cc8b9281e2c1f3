package models

const (
	CannedKindChat  = "chat"
	CannedKindImage = "image"

	// CannedDefaultKeyword marks the row used when no keyword matches.
	CannedDefaultKeyword = "default"
)

// CannedResponse is one row of a fallback table, as stored in YAML or Postgres.
type CannedResponse struct {
	Kind     string `json:"kind" yaml:"-"`
	Keyword  string `json:"keyword" yaml:"keyword"`
	Response string `json:"response" yaml:"response"`
	Position int    `json:"position" yaml:"-"`
}
