package store

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// The types below describe the document layout for Schema only; decoding goes
// through source's models, which keep members not listed here.

type schemaSource struct {
	Language    string  `json:"language" jsonschema:"description=Audio or subtitle language, e.g. Latino, Español, Subtitulado."`
	ServerName  string  `json:"server_name" jsonschema:"description=Embed host, e.g. Streamwish, SW, Filemoon, Vidhide, Voesx."`
	EmbedURL    string  `json:"embed_url" jsonschema:"description=Embed page URL. Its last path segment is the source id."`
	ResolvedURL *string `json:"resolved_url,omitempty" jsonschema:"description=Cached manifest URL, null after a failed resolution."`
}

type schemaEpisode struct {
	EpisodeNumber int             `json:"episode_number"`
	Title         string          `json:"title"`
	Sources       []*schemaSource `json:"sources"`
}

type schemaSeason struct {
	SeasonNumber int              `json:"season_number"`
	Episodes     []*schemaEpisode `json:"episodes"`
}

type schemaEntry struct {
	ID      any             `json:"id,omitempty" jsonschema:"description=Entry id, a number or a string."`
	Title   string          `json:"title"`
	Type    string          `json:"type,omitempty"`
	Sources []*schemaSource `json:"sources,omitempty" jsonschema:"description=Sources of a movie."`
	Seasons []*schemaSeason `json:"seasons,omitempty" jsonschema:"description=Seasons of a series or anime."`
}

type schemaDocument struct {
	Movies []*schemaEntry `json:"movies"`
	Series []*schemaEntry `json:"series"`
	Anime  []*schemaEntry `json:"anime"`
}

var schemaNames = map[string]string{
	"schemaSource":   "VideoSource",
	"schemaEpisode":  "Episode",
	"schemaSeason":   "Season",
	"schemaEntry":    "Entry",
	"schemaDocument": "Document",
}

// Schema returns the JSON Schema of a content document.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		Namer: func(t reflect.Type) string {
			if name, ok := schemaNames[t.Name()]; ok {
				return name
			}
			return t.Name()
		},
	}
	return reflector.Reflect(&schemaDocument{})
}
