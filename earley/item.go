package earley

import (
	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/grammar"
)

// MedialItem is an Earley item whose dot sits after the rule's first rhs
// symbol: [lhs -> rhs0 • rhs1, origin]. Items with the dot at position 0
// are never stored explicitly — the predicted-symbol bitset subsumes
// them, since a binarized grammar's only interesting dot positions are 1
// (medial) and 2 (completed).
type MedialItem struct {
	Rule   grammar.Dot
	Origin uint32
	// Factor is the forest node built so far for the rule's rhs0, or
	// forest.NullHandle when parsing with a NullForest.
	Factor forest.NodeHandle
}

// medialKey identifies a medial item for chart-level deduplication: two
// items are the same Earley item iff they agree on (rule, origin).
type medialKey struct {
	rule   grammar.Dot
	origin uint32
}
