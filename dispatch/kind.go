package dispatch

// Kind is the closed set of resolution implementations a server name can map to.
type Kind int

const (
	// Unsupported is the kind of every name without an implementation.
	Unsupported Kind = iota
	Streamwish
	Filemoon
	Vidhide
	Voesx
	// Scripted servers are backed by a Lua resolver script.
	Scripted
)

func (k Kind) String() string {
	switch k {
	case Streamwish:
		return "streamwish"
	case Filemoon:
		return "filemoon"
	case Vidhide:
		return "vidhide"
	case Voesx:
		return "voesx"
	case Scripted:
		return "scripted"
	default:
		return "unsupported"
	}
}
