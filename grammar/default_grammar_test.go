package grammar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/bocage/symbol"
)

// chainGrammar builds a grammar deep enough to force gensym chains (one
// rule's rhs has length 4) and a three-level prediction chain
// (Expr -> Term -> Factor), so the invariants below have something to
// actually exercise rather than vacuously holding for a trivial grammar.
func chainGrammar(t *testing.T) (*Builder, *DefaultGrammar) {
	t.Helper()
	b := NewGrammarBuilder("Chain")
	b.LHS("Expr").N("Term").End()
	b.LHS("Term").N("Factor").End()
	b.LHS("Factor").T("a").T("b").T("c").T("d").End()
	b.Start("Expr")
	g, err := Prepare(b.Build())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	return b, g
}

func bitSet(row []uint64, col int) bool {
	word := col / 64
	if word >= len(row) {
		return false
	}
	return row[word]&(1<<uint(col%64)) != 0
}

// TestPredictionTransitionsNeverNameAGensym exercises the
// prediction-transition non-gensym invariant: every PredictionTransition
// produced by Completions or GenCompletion names a real (non-gensym)
// symbol, since effectiveLhs always resolves a gensym lhs up to its real
// lhs before a transition is recorded.
func TestPredictionTransitionsNeverNameAGensym(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "bocage.grammar")
	defer teardown()

	_, g := chainGrammar(t)
	if g.NumGensyms() == 0 {
		t.Fatalf("expected the four-symbol rhs to force at least one gensym")
	}

	for s := 0; s < g.NumInternalSyms(); s++ {
		for _, pt := range g.Completions(symbol.Symbol(s)) {
			if int(pt.Symbol) >= g.NumSyms() {
				t.Errorf("Completions(%d) produced a transition naming gensym %d, want < %d", s, pt.Symbol, g.NumSyms())
			}
		}
	}
	for i := 0; i < g.NumGensyms(); i++ {
		pt := g.GenCompletion(i)
		if int(pt.Symbol) >= g.NumSyms() {
			t.Errorf("GenCompletion(%d) produced a transition naming gensym %d, want < %d", i, pt.Symbol, g.NumSyms())
		}
	}
}

// TestPredictionMatrixIsReflexiveAndTransitivelyClosed checks the two
// closure properties populatePredictionMatrix is supposed to establish:
// every symbol predicts itself, and prediction composes across a chain
// (Expr predicts Term predicts Factor implies Expr predicts Factor).
func TestPredictionMatrixIsReflexiveAndTransitivelyClosed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "bocage.grammar")
	defer teardown()

	b, g := chainGrammar(t)

	for s := 0; s < g.NumInternalSyms(); s++ {
		row := g.PredictionRow(symbol.Symbol(s))
		if !bitSet(row, s) {
			t.Errorf("expected symbol %d to predict itself after ReflexiveClosure", s)
		}
	}

	exprExt, _ := b.SymbolID("Expr")
	factorExt, _ := b.SymbolID("Factor")
	expr, _ := g.ToInternal(exprExt)
	factor, _ := g.ToInternal(factorExt)

	row := g.PredictionRow(expr)
	if !bitSet(row, int(factor)) {
		t.Errorf("expected Expr to transitively predict Factor through Term, but bit %d is unset", factor)
	}
}

// TestSymbolRoundTripsThroughInternalExternalMaps checks
// to_internal(to_external(s)) == s and the inverse, for every symbol the
// builder interned.
func TestSymbolRoundTripsThroughInternalExternalMaps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "bocage.grammar")
	defer teardown()

	b, g := chainGrammar(t)
	for _, name := range []string{"Expr", "Term", "Factor", "a", "b", "c", "d"} {
		ext, ok := b.SymbolID(name)
		if !ok {
			t.Fatalf("no such symbol: %q", name)
		}
		in, ok := g.ToInternal(ext)
		if !ok {
			t.Fatalf("%q: no internal mapping for external symbol %d", name, ext)
		}
		gotExt := g.ToExternal(in)
		if gotExt != ext {
			t.Errorf("%q: to_external(to_internal(%d)) = %d, want %d", name, ext, gotExt, ext)
		}
	}
}
