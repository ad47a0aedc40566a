package resolver

import (
	"context"
	"strings"

	"github.com/cinegate/cinegate/browser"
	"github.com/cinegate/cinegate/fetch"
)

// Strategy names accepted in Deps.Order.
const (
	StrategyScan    = "scan"
	StrategyRender  = "render"
	StrategyBrowser = "browser"
)

// Resolver produces a manifest URL for a source id.
type Resolver interface {
	Resolve(ctx context.Context, sourceID string) (string, error)
}

// Deps are the collaborators strategies are built from.
type Deps struct {
	Fetcher fetch.Fetcher
	// Backend enables the browser strategy when non-nil.
	Backend  browser.Backend
	Automate Automate
	// Order lists strategy names; unknown or unavailable ones are skipped.
	Order []string
}

// HostResolver resolves sources of one host with an ordered strategy chain.
type HostResolver struct {
	Host  Host
	Chain Chain
}

// New builds the chain for host. A render step needs a fetcher that can render
// and a browser step needs a backend; hosts requiring scripts skip the plain scan.
func New(host Host, deps Deps) *HostResolver {
	var chain Chain
	for _, name := range deps.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case StrategyScan:
			if !host.RequiresJS && deps.Fetcher != nil {
				chain = append(chain, &Scan{Fetcher: deps.Fetcher})
			}
		case StrategyRender:
			if deps.Fetcher != nil && fetch.CanRender(deps.Fetcher) {
				chain = append(chain, &Scan{Fetcher: deps.Fetcher, RenderJS: true})
			}
		case StrategyBrowser:
			if deps.Backend != nil {
				automate := deps.Automate
				automate.Backend = deps.Backend
				chain = append(chain, &automate)
			}
		}
	}
	return &HostResolver{Host: host, Chain: chain}
}

// Resolve implements Resolver.
func (r *HostResolver) Resolve(ctx context.Context, sourceID string) (string, error) {
	return r.Chain.Resolve(ctx, r.Host, r.Host.EmbedURL(sourceID))
}
