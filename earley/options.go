package earley

import "github.com/npillmayer/bocage/forest"

// Option configures a Parser at construction time.
type Option func(p *Parser)

// WithForest attaches a Forest the parser records nodes into during
// recognition. Defaults to forest.NullForest, which tracks acceptance
// only. Pass a *forest.Bocage to retain a shared packed parse forest for
// later traversal.
func WithForest(f forest.Forest) Option {
	return func(p *Parser) { p.forest = f }
}

// StoreBacklinks configures the parser to keep a debug fingerprint of
// completions: a structhash of the completed item, keyed by the handle of
// the Product node built for it. Defaults to
// false; enabling it costs an allocation and a hash per completion and is
// meant for diagnostics, not production parsing.
func StoreBacklinks(b bool) Option {
	return func(p *Parser) { p.storeBacklinks = b }
}
