// Package grammar turns an external context-free grammar into the
// normalized, binarized internal form the recognizer consumes: properification,
// binarization with null-rule elimination, symbol remapping, prediction and
// completion tables, and interleaved LR(1) first/follow sets.
package grammar

import (
	"fmt"

	"github.com/npillmayer/bocage/symbol"
)

// Dot is the identity of a rule in the internal (binarized) grammar; it
// also stands for the position immediately after that rule's rhs.
type Dot = uint32

// ExternalOrigin is the action/origin id an external grammar builder
// attaches to a rule, carried through preparation for the evaluator.
type ExternalOrigin struct {
	Value   uint32
	Present bool
}

// Side names which rhs position a nulling-eliminated symbol occupied.
type Side uint8

const (
	Left Side = iota
	Right
)

// NullingEliminated records that a rule's rhs was shortened by eliding a
// nullable symbol at the given side, during binarize-and-eliminate-nulling.
type NullingEliminated struct {
	Symbol  symbol.Symbol
	Side    Side
	Present bool
}

// Event pairs a builder-supplied event id with a minimal distance,
// attached at a rule's dot for diagnostic or disambiguation use by an
// external evaluator. Carried verbatim through preparation.
type Event struct {
	ID       uint32
	Distance uint32
	Present  bool
}

// ExternalDottedRule names a (rule, dot) pair in the external grammar's
// own numbering, used for builder-supplied trace information.
type ExternalDottedRule struct {
	Rule    uint32
	Dot     uint32
	Present bool
}

// Rule is one production, column-major fields Lhs/Rhs0/Rhs1 are stored on
// Cfg directly; Rule is the row-oriented view used while building and
// transforming the grammar.
type Rule struct {
	Lhs       symbol.Symbol
	Rhs       []symbol.Symbol
	HistoryID int
}

// History carries per-rule side information that rides along through the
// preparation pipeline: the rule's external origin/action, whether (and
// how) it was nulling-eliminated, and optional builder-supplied events
// and traces at dot 0 (prediction) and dot 1 (post-first-symbol).
type History struct {
	Origin   ExternalOrigin
	Nullable NullingEliminated
	Dot0Event Event
	Dot1Event Event
	Dot0Trace ExternalDottedRule
	Dot1Trace ExternalDottedRule
}

// Cfg is a context-free grammar under construction or mid-transformation:
// a flat rule list over an open symbol universe, with one designated
// start symbol and a per-symbol terminal/nonterminal classification.
type Cfg struct {
	Rules      []Rule
	Histories  []History
	Start      symbol.Symbol
	NumSyms    int
	terminal   map[symbol.Symbol]bool
	names      map[symbol.Symbol]string
}

// NewCfg returns an empty grammar with numSyms symbols already allocated
// (0..numSyms-1), none yet marked terminal.
func NewCfg(numSyms int) *Cfg {
	return &Cfg{
		NumSyms:  numSyms,
		terminal: make(map[symbol.Symbol]bool),
		names:    make(map[symbol.Symbol]string),
	}
}

// AddRule appends a rule with the given history, returning its Dot.
func (c *Cfg) AddRule(lhs symbol.Symbol, rhs []symbol.Symbol, h History) Dot {
	c.Rules = append(c.Rules, Rule{Lhs: lhs, Rhs: rhs, HistoryID: len(c.Histories)})
	c.Histories = append(c.Histories, h)
	return Dot(len(c.Rules) - 1)
}

// NewSymbol allocates and returns a fresh symbol id.
func (c *Cfg) NewSymbol() symbol.Symbol {
	s := symbol.Symbol(c.NumSyms)
	c.NumSyms++
	return s
}

// MarkTerminal records sym as a terminal (a symbol with no productions).
func (c *Cfg) MarkTerminal(sym symbol.Symbol) {
	c.terminal[sym] = true
}

// IsTerminal reports whether sym was marked terminal.
func (c *Cfg) IsTerminal(sym symbol.Symbol) bool {
	return c.terminal[sym]
}

// SetName attaches a diagnostic name to sym (used by String()/BNF dumps,
// never by recognition logic).
func (c *Cfg) SetName(sym symbol.Symbol, name string) {
	c.names[sym] = name
}

// Name returns sym's diagnostic name, or a synthesized placeholder.
func (c *Cfg) Name(sym symbol.Symbol) string {
	if n, ok := c.names[sym]; ok {
		return n
	}
	return fmt.Sprintf("sym%d", uint32(sym))
}

// StringifyToBNF renders the grammar's rules as BNF text, for diagnostics.
func (c *Cfg) StringifyToBNF() string {
	out := ""
	for _, r := range c.Rules {
		out += c.Name(r.Lhs) + " ->"
		for _, s := range r.Rhs {
			out += " " + c.Name(s)
		}
		out += "\n"
	}
	return out
}
