// Package traverse walks a Bocage forest in dependency order and
// evaluates it into application values, one Cartesian product of factor
// combinations at a time.
package traverse

import (
	"sort"

	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/symbol"
)

// ItemKind distinguishes the three shapes a traversal node can take.
type ItemKind uint8

const (
	SumItem ItemKind = iota
	NullingItem
	LeafItem
)

// Factor is one operand of a Product: the symbol it derives, the forest
// handle it was built at, and the evaluation index an evaluator assigned
// it when this traversal visited it earlier (factors always precede the
// product that references them, since a Bocage handle only ever points
// to a strictly earlier position).
type Factor struct {
	Symbol    symbol.Symbol
	Handle    forest.NodeHandle
	EvalIndex int32
}

// Product is one rule application: an action id plus its recognized
// factors (one for a unary rule, two for a binary one).
type Product struct {
	Action  uint32
	Factors []Factor
}

// Item is one node surfaced by Traverse.NextNode: exactly one of Products
// (Kind == SumItem), or neither (Kind == NullingItem / LeafItem, where
// only Symbol is meaningful).
type Item struct {
	Handle   forest.NodeHandle
	Symbol   symbol.Symbol
	Kind     ItemKind
	Products []Product

	traverse *Traverse
}

// SetEvaluationResult records the value-index an evaluator assigned this
// node, so that any later item whose factors reference this handle can
// resolve it via Factor.EvalIndex.
func (it *Item) SetEvaluationResult(index int32) {
	it.traverse.index[it.Handle] = index
}

// Traverse walks a Bocage from a root handle, yielding nodes in
// dependency order. Because Bocage is append-only and every factor
// handle references a strictly earlier position, the set of handles
// reachable from root is already topologically sorted by ascending
// handle value — no explicit stack-based post-order is needed, just a
// one-time reachability collection followed by a numeric sort.
type Traverse struct {
	bocage *forest.Bocage
	order  []forest.NodeHandle
	pos    int
	index  map[forest.NodeHandle]int32
}

// NewTraverse collects every node reachable from root and prepares to
// walk them in dependency order.
func NewTraverse(bocage *forest.Bocage, root forest.NodeHandle) *Traverse {
	t := &Traverse{bocage: bocage, index: make(map[forest.NodeHandle]int32)}
	seen := make(map[forest.NodeHandle]bool)

	var collect func(h forest.NodeHandle)
	collect = func(h forest.NodeHandle) {
		if h == forest.NullHandle || seen[h] {
			return
		}
		seen[h] = true
		t.order = append(t.order, h)

		it := bocage.IterFrom(h)
		node, ok := it.Next()
		if !ok {
			panic("traverse: dangling node handle")
		}
		if node.Kind != forest.KindSum {
			return
		}
		for i := uint32(0); i < node.Count; i++ {
			prod, ok := it.Next()
			if !ok {
				break
			}
			collect(prod.LeftFactor)
			if prod.HasRight {
				collect(prod.RightFactor)
			}
		}
	}
	collect(root)

	sort.Slice(t.order, func(i, j int) bool { return t.order[i] < t.order[j] })
	return t
}

// NextNode returns the next node in dependency order, or false once the
// whole reachable subgraph has been walked.
func (t *Traverse) NextNode() (*Item, bool) {
	if t.pos >= len(t.order) {
		return nil, false
	}
	h := t.order[t.pos]
	t.pos++

	node := t.bocage.Get(h)
	item := &Item{Handle: h, traverse: t}

	switch node.Kind {
	case forest.KindSum:
		item.Kind = SumItem
		item.Symbol = node.Nonterminal
		it := t.bocage.IterFrom(h)
		it.Next() // re-consume the header to position the cursor at its products
		for i := uint32(0); i < node.Count; i++ {
			prod, ok := it.Next()
			if !ok {
				break
			}
			item.Products = append(item.Products, Product{
				Action:  prod.Action,
				Factors: t.factorsOf(prod),
			})
		}
	case forest.KindNullingLeaf:
		item.Kind = NullingItem
		item.Symbol = node.Symbol
	case forest.KindEvaluated:
		item.Kind = LeafItem
		item.Symbol = node.Symbol
	}
	return item, true
}

func (t *Traverse) factorsOf(prod forest.Node) []Factor {
	factors := []Factor{t.factor(prod.LeftFactor)}
	if prod.HasRight {
		factors = append(factors, t.factor(prod.RightFactor))
	}
	return factors
}

func (t *Traverse) factor(h forest.NodeHandle) Factor {
	n := t.bocage.Get(h)
	sym := n.Symbol
	if n.Kind == forest.KindSum {
		sym = n.Nonterminal
	}
	return Factor{Symbol: sym, Handle: h, EvalIndex: t.index[h]}
}
