package traverse

import (
	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/symbol"
)

// Evaluator folds a Bocage traversal into application values of type V,
// one callback per node shape: Leaf for a scanned terminal, Rule for one
// product's factor combination, Null for an ε-derived symbol (which may
// append more than one value, mirroring grammar.NullingEliminated's
// ability to stand for several elided derivations).
type Evaluator[V any] struct {
	Leaf func(sym symbol.Symbol) V
	Rule func(action uint32, factors []V) V
	Null func(sym symbol.Symbol, out *[]V)
}

// Evaluate drives t to exhaustion, returning the root's values (every
// value a Sum's alternatives, or every value a Null callback appended,
// produce for the last node visited — which, by construction, is root).
func (e *Evaluator[V]) Evaluate(t *Traverse) []V {
	values := make(map[forest.NodeHandle][]V)
	var last []V
	var idx int32

	for {
		item, ok := t.NextNode()
		if !ok {
			break
		}
		var vs []V
		switch item.Kind {
		case SumItem:
			for _, prod := range item.Products {
				vs = append(vs, e.evalProduct(prod, values)...)
			}
		case NullingItem:
			e.Null(item.Symbol, &vs)
		case LeafItem:
			vs = append(vs, e.Leaf(item.Symbol))
		}
		values[item.Handle] = vs
		item.SetEvaluationResult(idx)
		idx++
		last = vs
	}
	return last
}

func (e *Evaluator[V]) evalProduct(prod Product, values map[forest.NodeHandle][]V) []V {
	if len(prod.Factors) == 0 {
		return []V{e.Rule(prod.Action, nil)}
	}
	cp := NewCartesianProduct[V]()
	for _, f := range prod.Factors {
		cp.Push(values[f.Handle])
	}
	var out []V
	for {
		out = append(out, e.Rule(prod.Action, cp.AsSlice()))
		if !cp.Advance() {
			break
		}
	}
	return out
}
