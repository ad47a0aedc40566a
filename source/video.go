// Package source models the content documents whose video sources get resolved:
// entries (movies, series, anime) with their seasons, episodes and per-server sources.
package source

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// UnknownLanguage labels sources without a language.
const UnknownLanguage = "Idioma Desconocido"

// VideoSource is one embed of a title on one server.
type VideoSource struct {
	// Language is e.g. "Latino", "Español" or "Subtitulado".
	Language   string
	ServerName string
	EmbedURL   string
	// ResolvedURL is the cached manifest URL. Once set it is reused until a forced run.
	ResolvedURL mo.Option[string]
	Extra       Extra

	// hasResolved records whether resolved_url is part of the document, even as null.
	hasResolved bool
}

// SourceID is the last path segment of the embed URL, e.g. "abc123" for
// "https://host/e/abc123/".
func (s *VideoSource) SourceID() string {
	trimmed := strings.Trim(strings.TrimSpace(s.EmbedURL), "/")
	if trimmed == "" {
		return ""
	}
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

// Resolved reports whether a non-empty manifest URL is stored.
func (s *VideoSource) Resolved() bool {
	u, ok := s.ResolvedURL.Get()
	return ok && u != ""
}

// SetResolved stores the outcome of a resolution. None is written as null.
func (s *VideoSource) SetResolved(u mo.Option[string]) {
	s.ResolvedURL = u
	s.hasResolved = true
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *VideoSource) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}

	var (
		decoded  VideoSource
		resolved *string
	)
	if _, err := o.take("language", &decoded.Language); err != nil {
		return err
	}
	if _, err := o.take("server_name", &decoded.ServerName); err != nil {
		return err
	}
	if _, err := o.take("embed_url", &decoded.EmbedURL); err != nil {
		return err
	}
	if decoded.hasResolved, err = o.take("resolved_url", &resolved); err != nil {
		return err
	}

	decoded.ResolvedURL = mo.PointerToOption(resolved)
	decoded.Extra = o.rest()
	*s = decoded
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s VideoSource) MarshalJSON() ([]byte, error) {
	known := []member{
		{"language", s.Language},
		{"server_name", s.ServerName},
		{"embed_url", s.EmbedURL},
	}
	if s.hasResolved || s.ResolvedURL.IsPresent() {
		known = append(known, member{"resolved_url", s.ResolvedURL.ToPointer()})
	}
	return encodeObject(known, s.Extra)
}

var (
	languagePriority = []string{"Latino", "Español", "Subtitulado"}
	serverPreference = []string{"MEGA", "SW", "Vidsrc", "Streamwish", "Filemoon", "Vidhide", "Netu", "Voesx", "Streamtape"}
)

// Group is the sources of one language.
type Group struct {
	Language string
	Sources  []*VideoSource
}

// ByLanguage groups sources by language: Latino, Español and Subtitulado first,
// then the others in order of appearance. Within a group, servers follow the
// preferred order and unknown servers come last, each keeping its relative order.
func ByLanguage(sources []*VideoSource) []Group {
	var order []string
	groups := make(map[string][]*VideoSource)
	for _, s := range sources {
		lang := s.Language
		if lang == "" {
			lang = UnknownLanguage
		}
		if _, ok := groups[lang]; !ok {
			order = append(order, lang)
		}
		groups[lang] = append(groups[lang], s)
	}

	rank := func(s *VideoSource) int {
		if i := lo.IndexOf(serverPreference, s.ServerName); i >= 0 {
			return i
		}
		return len(serverPreference)
	}

	prioritized := lo.Filter(languagePriority, func(l string, _ int) bool {
		_, ok := groups[l]
		return ok
	})
	others := lo.Filter(order, func(l string, _ int) bool {
		return !lo.Contains(languagePriority, l)
	})

	return lo.Map(append(prioritized, others...), func(lang string, _ int) Group {
		sorted := append([]*VideoSource(nil), groups[lang]...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return rank(sorted[i]) < rank(sorted[j])
		})
		return Group{Language: lang, Sources: sorted}
	})
}
