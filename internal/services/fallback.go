package services

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingDefault = errors.New("canned response table has no default entry")

type CannedEntry struct {
	Keyword  string
	Response string
}

// ResponseTable maps lower-case keywords to canned text in a fixed order.
// It is immutable once built and safe for concurrent reads.
type ResponseTable struct {
	entries     []CannedEntry
	defaultText string
}

func NewResponseTable(entries []CannedEntry, defaultText string) (*ResponseTable, error) {
	if strings.TrimSpace(defaultText) == "" {
		return nil, ErrMissingDefault
	}

	seen := make(map[string]bool, len(entries))
	table := &ResponseTable{
		entries:     make([]CannedEntry, 0, len(entries)),
		defaultText: defaultText,
	}
	for i, e := range entries {
		keyword := strings.ToLower(strings.TrimSpace(e.Keyword))
		if keyword == "" {
			return nil, fmt.Errorf("canned entry %d: keyword is empty", i)
		}
		if strings.TrimSpace(e.Response) == "" {
			return nil, fmt.Errorf("canned entry %q: response is empty", keyword)
		}
		if seen[keyword] {
			return nil, fmt.Errorf("canned entry %q: duplicate keyword", keyword)
		}
		seen[keyword] = true
		table.entries = append(table.entries, CannedEntry{Keyword: keyword, Response: e.Response})
	}
	return table, nil
}

// Match returns the response of the first keyword, in table order, that occurs
// in input. Earlier entries win over longer or more specific later ones.
func (t *ResponseTable) Match(input string) string {
	lower := strings.ToLower(input)
	for _, e := range t.entries {
		if strings.Contains(lower, e.Keyword) {
			return e.Response
		}
	}
	return t.defaultText
}

func (t *ResponseTable) Default() string { return t.defaultText }

func (t *ResponseTable) Entries() []CannedEntry {
	out := make([]CannedEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *ResponseTable) Len() int { return len(t.entries) }

// Fallback answers chat messages and image references from canned tables
// when the inference server cannot.
type Fallback struct {
	chat  *ResponseTable
	image *ResponseTable
}

func NewFallback(chat, image *ResponseTable) *Fallback {
	return &Fallback{chat: chat, image: image}
}

func (f *Fallback) RespondToChat(message string) string {
	return f.chat.Match(message)
}

func (f *Fallback) RespondToImage(imageRef string) string {
	return f.image.Match(imageRef)
}

func (f *Fallback) ChatTable() *ResponseTable { return f.chat }

func (f *Fallback) ImageTable() *ResponseTable { return f.image }
