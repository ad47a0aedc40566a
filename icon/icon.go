// Package icon renders the status symbols printed by cinegate commands.
//
// The glyph set follows icons.variant: emoji, nerd-font, plain ASCII, kaomoji or
// coloured squares.
package icon

import (
	"github.com/cinegate/cinegate/key"
	"github.com/spf13/viper"
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

var variants = map[string]func(*iconDef) string{
	"emoji":   func(d *iconDef) string { return d.emoji },
	"nerd":    func(d *iconDef) string { return d.nerd },
	"plain":   func(d *iconDef) string { return d.plain },
	"kaomoji": func(d *iconDef) string { return d.kaomoji },
	"squares": func(d *iconDef) string { return d.squares },
}

// AvailableVariants lists the accepted values of icons.variant.
func AvailableVariants() []string {
	return []string{"emoji", "nerd", "plain", "kaomoji", "squares"}
}

// Get renders i in the configured variant, or returns "" when the variant is unknown.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}

	glyph, ok := variants[viper.GetString(key.IconsVariant)]
	if !ok {
		return ""
	}

	return glyph(def)
}
