package dispatch

import (
	"sort"
	"strings"

	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/resolver"
	"github.com/cinegate/cinegate/resolver/custom"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Server is one resolvable server name and the resolver behind it.
type Server struct {
	Kind Kind
	// Name is canonical and lower case.
	Name     string
	Aliases  []string
	Resolver resolver.Resolver
}

// Supported reports whether s has an implementation.
func (s *Server) Supported() bool {
	return s.Kind != Unsupported && s.Resolver != nil
}

var builtinKinds = map[string]Kind{
	resolver.Streamwish.Name: Streamwish,
	resolver.Filemoon.Name:   Filemoon,
	resolver.Vidhide.Name:    Vidhide,
	resolver.Voesx.Name:      Voesx,
}

// Builtins returns the built-in servers with strategy chains built from deps.
func Builtins(deps resolver.Deps) []*Server {
	return lo.Map(resolver.Builtins(), func(h resolver.Host, _ int) *Server {
		return &Server{
			Kind:     builtinKinds[h.Name],
			Name:     h.Name,
			Aliases:  h.Aliases,
			Resolver: resolver.New(h, deps),
		}
	})
}

// ScriptedServers returns one server per resolver script.
func ScriptedServers(scripts []*custom.Script) []*Server {
	return lo.Map(scripts, func(s *custom.Script, _ int) *Server {
		return &Server{
			Kind:     Scripted,
			Name:     s.Name,
			Aliases:  s.Aliases,
			Resolver: s,
		}
	})
}

// Registry maps server names and aliases, case-insensitively, to exactly one Server.
type Registry struct {
	servers []*Server
	byName  map[string]*Server
}

// NewRegistry indexes servers. A name already taken by an earlier server is
// skipped with a warning, so built-ins always win over scripts.
func NewRegistry(servers ...*Server) *Registry {
	r := &Registry{byName: make(map[string]*Server)}
	for _, s := range servers {
		r.add(s)
	}
	return r
}

func (r *Registry) add(s *Server) {
	s.Name = normalize(s.Name)

	var names []string
	for _, name := range append([]string{s.Name}, s.Aliases...) {
		name = normalize(name)
		if name == "" {
			continue
		}
		if owner, taken := r.byName[name]; taken {
			if owner != s {
				log.WithFields(log.Fields{"name": name, "owner": owner.Name, "server": s.Name}).Warn("server name already registered")
			}
			continue
		}
		r.byName[name] = s
		names = append(names, name)
	}

	if len(names) == 0 {
		return
	}
	if names[0] != s.Name {
		// The canonical name belongs to another server; the first free alias takes over.
		s.Name = names[0]
	}
	s.Aliases = names[1:]
	r.servers = append(r.servers, s)
}

// Lookup finds the server called name. Unknown names yield an Unsupported server
// carrying the normalized name, so callers can fail fast without special cases.
func (r *Registry) Lookup(name string) *Server {
	name = normalize(name)
	if s, ok := r.byName[name]; ok {
		return s
	}
	return &Server{Kind: Unsupported, Name: name}
}

// Servers returns the registered servers in registration order.
func (r *Registry) Servers() []*Server {
	return r.servers
}

// Names returns every accepted name, aliases included, sorted.
func (r *Registry) Names() []string {
	names := lo.Keys(r.byName)
	sort.Strings(names)
	return names
}

// Suggest returns the known name closest to name, if any is reasonably close.
func (r *Registry) Suggest(name string) mo.Option[string] {
	name = normalize(name)
	if name == "" || len(r.byName) == 0 {
		return mo.None[string]()
	}

	closest := lo.MinBy(r.Names(), func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	if levenshtein.Distance(name, closest) > max(2, len(name)/3) {
		return mo.None[string]()
	}
	return mo.Some(closest)
}

// Filter returns the servers whose name or an alias fuzzily matches query.
// An empty query matches everything.
func (r *Registry) Filter(query string) []*Server {
	query = normalize(query)
	if query == "" {
		return r.servers
	}
	return lo.Filter(r.servers, func(s *Server, _ int) bool {
		return lo.ContainsBy(append([]string{s.Name}, s.Aliases...), func(name string) bool {
			return fuzzy.MatchFold(query, name)
		})
	})
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
