package grammar

import "github.com/npillmayer/bocage/symbol"

// Builder is a fluent constructor for an external CFG, in the chaining
// style of a grammar-builder DSL: NewGrammarBuilder("G").LHS("Expr").
// N("Expr").T("+").N("Expr").End(). It is the concrete shape the external
// grammar-building collaborator targets; it does not parse any textual
// grammar notation itself.
type Builder struct {
	name    string
	cfg     *Cfg
	ids     map[string]symbol.Symbol
	pending *pendingRule
	start   string
	err     error
}

type pendingRule struct {
	lhs    symbol.Symbol
	rhs    []symbol.Symbol
	action ExternalOrigin
}

// NewGrammarBuilder starts a new grammar under construction, named for
// diagnostics only.
func NewGrammarBuilder(name string) *Builder {
	return &Builder{
		name: name,
		cfg:  NewCfg(0),
		ids:  make(map[string]symbol.Symbol),
	}
}

func (b *Builder) intern(name string) symbol.Symbol {
	if s, ok := b.ids[name]; ok {
		return s
	}
	s := b.cfg.NewSymbol()
	b.ids[name] = s
	b.cfg.SetName(s, name)
	return s
}

// SymbolID returns the external symbol id interned for name, if LHS, N or
// T has referenced it at least once.
func (b *Builder) SymbolID(name string) (symbol.Symbol, bool) {
	s, ok := b.ids[name]
	return s, ok
}

// LHS begins a new rule for the named nonterminal.
func (b *Builder) LHS(name string) *Builder {
	b.pending = &pendingRule{lhs: b.intern(name)}
	return b
}

// N appends a nonterminal reference to the rule under construction.
func (b *Builder) N(name string) *Builder {
	b.pending.rhs = append(b.pending.rhs, b.intern(name))
	return b
}

// T appends a terminal reference to the rule under construction,
// marking it terminal in the grammar.
func (b *Builder) T(name string) *Builder {
	s := b.intern(name)
	b.cfg.MarkTerminal(s)
	b.pending.rhs = append(b.pending.rhs, s)
	return b
}

// Action attaches an external origin/action id to the rule under
// construction, passed through to the evaluator after a parse.
func (b *Builder) Action(id uint32) *Builder {
	b.pending.action = ExternalOrigin{Value: id, Present: true}
	return b
}

// End commits the rule under construction to the grammar.
func (b *Builder) End() *Builder {
	b.cfg.AddRule(b.pending.lhs, b.pending.rhs, History{Origin: b.pending.action})
	b.pending = nil
	return b
}

// Start designates the grammar's start symbol.
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Build finalizes the grammar: symbols that never appear as a rule's lhs
// are marked terminal (catching terminals introduced via N instead of T),
// and the designated start symbol is set.
func (b *Builder) Build() *Cfg {
	hasLHS := make(map[symbol.Symbol]bool)
	for _, r := range b.cfg.Rules {
		hasLHS[r.Lhs] = true
	}
	for name, s := range b.ids {
		if !hasLHS[s] {
			b.cfg.MarkTerminal(s)
		}
		if name == b.start {
			b.cfg.Start = s
		}
	}
	return b.cfg
}
