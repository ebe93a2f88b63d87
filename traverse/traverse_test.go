package traverse

import (
	"testing"

	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/symbol"
)

const (
	symNumber symbol.Symbol = iota + 1
	symPlus
	symExpr
	symTerm
)

func TestEvaluateSingleDerivation(t *testing.T) {
	b := forest.NewBocage(64)
	left := b.Leaf(symNumber, 1)
	right := b.Leaf(symNumber, 2)
	prod := b.Product(1, left, right, true)
	b.PushSummand(prod)
	root := b.Sum(symExpr, 0)

	tr := NewTraverse(b, root)
	ev := &Evaluator[string]{
		Leaf: func(sym symbol.Symbol) string {
			if sym == symNumber {
				return "n"
			}
			return "?"
		},
		Rule: func(action uint32, factors []string) string {
			if len(factors) == 1 {
				return factors[0]
			}
			return "(" + factors[0] + "+" + factors[1] + ")"
		},
		Null: func(sym symbol.Symbol, out *[]string) { *out = append(*out, "") },
	}
	values := ev.Evaluate(tr)
	if len(values) != 1 || values[0] != "(n+n)" {
		t.Fatalf("expected a single value \"(n+n)\", got %v", values)
	}
}

func TestEvaluateAmbiguousDerivation(t *testing.T) {
	b := forest.NewBocage(64)
	leaf := b.Leaf(symNumber, 1)

	// Two alternative unary productions of the same span, mirroring a
	// Sum node with two distinct rule applications.
	p1 := b.Product(10, leaf, forest.NullHandle, false)
	p2 := b.Product(20, leaf, forest.NullHandle, false)
	b.PushSummand(p1)
	b.PushSummand(p2)
	root := b.Sum(symExpr, 0)

	tr := NewTraverse(b, root)
	ev := &Evaluator[uint32]{
		Leaf: func(sym symbol.Symbol) uint32 { return 0 },
		Rule: func(action uint32, factors []uint32) uint32 { return action },
		Null: func(sym symbol.Symbol, out *[]uint32) {},
	}
	values := ev.Evaluate(tr)
	if len(values) != 2 || values[0] != 10 || values[1] != 20 {
		t.Fatalf("expected both alternative actions [10 20], got %v", values)
	}
}

func TestEvaluateNullingLeaf(t *testing.T) {
	b := forest.NewBocage(64)
	leaf := b.Leaf(symNumber, 1)
	nulling := b.Nulling(symPlus)

	prod := b.Product(1, leaf, nulling, true)
	b.PushSummand(prod)
	root := b.Sum(symExpr, 0)

	tr := NewTraverse(b, root)
	ev := &Evaluator[string]{
		Leaf: func(sym symbol.Symbol) string { return "n" },
		Rule: func(action uint32, factors []string) string { return factors[0] + factors[1] },
		Null: func(sym symbol.Symbol, out *[]string) { *out = append(*out, "ε") },
	}
	values := ev.Evaluate(tr)
	if len(values) != 1 || values[0] != "nε" {
		t.Fatalf("expected the elided factor to evaluate via Null, got %v", values)
	}
}

func TestCartesianCombinationsMultiplyAcrossFactors(t *testing.T) {
	b := forest.NewBocage(64)
	leaf := b.Leaf(symNumber, 1)

	// left has two alternatives, right is a single leaf: the Rule
	// callback should be invoked once per combination (2 total).
	leftA := b.Product(100, leaf, forest.NullHandle, false)
	leftB := b.Product(200, leaf, forest.NullHandle, false)
	b.PushSummand(leftA)
	b.PushSummand(leftB)
	leftSpan := b.Sum(symTerm, 0)

	rightLeaf := b.Leaf(symPlus, 2)
	top := b.Product(1, leftSpan, rightLeaf, true)
	b.PushSummand(top)
	root := b.Sum(symExpr, 0)

	tr := NewTraverse(b, root)
	var calls int
	ev := &Evaluator[uint32]{
		Leaf: func(sym symbol.Symbol) uint32 { return 0 },
		Rule: func(action uint32, factors []uint32) uint32 {
			if len(factors) == 2 {
				calls++
			}
			return action
		},
		Null: func(sym symbol.Symbol, out *[]uint32) {},
	}
	ev.Evaluate(tr)
	if calls != 2 {
		t.Errorf("expected the top rule to evaluate once per left alternative (2), got %d", calls)
	}
}
