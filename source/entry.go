package source

import (
	"encoding/json"
	"strings"
)

// Entry is a movie, series or anime. Movies carry sources directly; series and
// anime carry them per episode.
type Entry struct {
	Title   string
	Type    string
	Sources []*VideoSource
	Seasons []*Season
	Extra   Extra
}

// ID returns the entry id as written in the document, unquoted.
func (e *Entry) ID() string {
	raw, ok := e.Extra["id"]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// AllSources returns the entry's own sources followed by every episode's, in document order.
func (e *Entry) AllSources() []*VideoSource {
	all := append([]*VideoSource(nil), e.Sources...)
	for _, season := range e.Seasons {
		for _, episode := range season.Episodes {
			all = append(all, episode.Sources...)
		}
	}
	return all
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}

	var decoded Entry
	for _, m := range []member{
		{"title", &decoded.Title},
		{"type", &decoded.Type},
		{"sources", &decoded.Sources},
		{"seasons", &decoded.Seasons},
	} {
		if _, err := o.take(m.name, m.value); err != nil {
			return err
		}
	}

	decoded.Extra = o.rest()
	*e = decoded
	return nil
}

// MarshalJSON implements json.Marshaler. Absent members stay absent.
func (e Entry) MarshalJSON() ([]byte, error) {
	var known []member
	if e.Title != "" {
		known = append(known, member{"title", e.Title})
	}
	if e.Type != "" {
		known = append(known, member{"type", e.Type})
	}
	if e.Sources != nil {
		known = append(known, member{"sources", e.Sources})
	}
	if e.Seasons != nil {
		known = append(known, member{"seasons", e.Seasons})
	}
	return encodeObject(known, e.Extra)
}

// Season groups episodes.
type Season struct {
	Number   int
	Episodes []*Episode
	Extra    Extra
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Season) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}

	var decoded Season
	if _, err := o.take("season_number", &decoded.Number); err != nil {
		return err
	}
	if _, err := o.take("episodes", &decoded.Episodes); err != nil {
		return err
	}

	decoded.Extra = o.rest()
	*s = decoded
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Season) MarshalJSON() ([]byte, error) {
	episodes := s.Episodes
	if episodes == nil {
		episodes = []*Episode{}
	}
	return encodeObject([]member{
		{"season_number", s.Number},
		{"episodes", episodes},
	}, s.Extra)
}

// Episode is one episode of a season.
type Episode struct {
	Number  int
	Title   string
	Sources []*VideoSource
	Extra   Extra
}

// UnmarshalJSON implements json.Unmarshaler.
func (ep *Episode) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}

	var decoded Episode
	for _, m := range []member{
		{"episode_number", &decoded.Number},
		{"title", &decoded.Title},
		{"sources", &decoded.Sources},
	} {
		if _, err := o.take(m.name, m.value); err != nil {
			return err
		}
	}

	decoded.Extra = o.rest()
	*ep = decoded
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ep Episode) MarshalJSON() ([]byte, error) {
	sources := ep.Sources
	if sources == nil {
		sources = []*VideoSource{}
	}
	return encodeObject([]member{
		{"episode_number", ep.Number},
		{"title", ep.Title},
		{"sources", sources},
	}, ep.Extra)
}
