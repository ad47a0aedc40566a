package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota + 1
	Fail
	Warn
	Progress
	Skip
	Cached
	Link
	Lua
	Server
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "💥",
		nerd:    "",
		plain:   "✗",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(o_O)",
		squares: "🟨",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・)ノ",
		squares: "🟦",
	},
	Skip: {
		emoji:   "⏭️",
		nerd:    "",
		plain:   "-",
		kaomoji: "(￣ー￣)",
		squares: "⬜",
	},
	Cached: {
		emoji:   "📦",
		nerd:    "",
		plain:   "*",
		kaomoji: "(^_^)b",
		squares: "🟪",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "->",
		kaomoji: "(☞ﾟヮﾟ)☞",
		squares: "🟫",
	},
	Lua: {
		emoji:   "🌙",
		nerd:    "",
		plain:   "lua",
		kaomoji: "(◕‿◕)",
		squares: "🟦",
	},
	Server: {
		emoji:   "📡",
		nerd:    "",
		plain:   "#",
		kaomoji: "(⌐■_■)",
		squares: "⬛",
	},
}
