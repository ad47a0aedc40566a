// Package store reads and writes the content documents batch resolution works on:
// JSON files with "movies", "series" and "anime" arrays of entries.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/source"
)

// Collections names the entry arrays of a document, in the order they are visited.
var Collections = []string{"movies", "series", "anime"}

// Document is one content file.
type Document struct {
	Movies []*source.Entry
	Series []*source.Entry
	Anime  []*source.Entry
	Extra  source.Extra
}

func (d *Document) collection(name string) *[]*source.Entry {
	switch name {
	case "movies":
		return &d.Movies
	case "series":
		return &d.Series
	default:
		return &d.Anime
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	var decoded Document
	for _, name := range Collections {
		raw, ok := members[name]
		if !ok {
			continue
		}
		delete(members, name)
		if err := json.Unmarshal(raw, decoded.collection(name)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if len(members) > 0 {
		decoded.Extra = members
	}
	*d = decoded
	return nil
}

// MarshalJSON implements json.Marshaler. Every collection is written, empty ones as [].
func (d Document) MarshalJSON() ([]byte, error) {
	members := make(map[string]any, len(d.Extra)+len(Collections))
	for name, raw := range d.Extra {
		members[name] = raw
	}
	for _, name := range Collections {
		entries := *d.collection(name)
		if entries == nil {
			entries = []*source.Entry{}
		}
		members[name] = entries
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(members); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Load reads the document at path. A missing or blank file is an empty document.
func Load(path string) (*Document, error) {
	data, err := filesystem.API().ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Document{}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// Encode renders doc with four-space indentation and without escaping
// HTML characters or non-ASCII text.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save replaces the file at path with doc atomically.
func Save(path string, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return filesystem.WriteAtomic(path, data, 0o644)
}

// Visit is called for every source of a document with its collection and entry.
type Visit func(collection string, entry *source.Entry, src *source.VideoSource) error

// Walk visits movies, series and anime in document order: each entry's own
// sources first, then its episodes' sources. It stops at the first error.
func Walk(doc *Document, visit Visit) error {
	for _, name := range Collections {
		for _, entry := range *doc.collection(name) {
			if entry == nil {
				continue
			}
			for _, src := range entry.AllSources() {
				if src == nil {
					continue
				}
				if err := visit(name, entry, src); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Listing is the sources of one entry, episodes included, grouped by language.
type Listing struct {
	Collection string
	Entry      *source.Entry
	Groups     []source.Group
}

// List returns a Listing per entry with sources, in document order.
func List(doc *Document) []Listing {
	var (
		listings []Listing
		sources  [][]*source.VideoSource
		index    = make(map[*source.Entry]int)
	)
	_ = Walk(doc, func(collection string, entry *source.Entry, src *source.VideoSource) error {
		i, ok := index[entry]
		if !ok {
			i = len(listings)
			index[entry] = i
			listings = append(listings, Listing{Collection: collection, Entry: entry})
			sources = append(sources, nil)
		}
		sources[i] = append(sources[i], src)
		return nil
	})

	for i := range listings {
		listings[i].Groups = source.ByLanguage(sources[i])
	}
	return listings
}
