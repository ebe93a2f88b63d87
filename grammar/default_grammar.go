package grammar

import (
	"sort"

	"github.com/npillmayer/bocage/symbol"
)

// Size reports the grammar's dimensions after preparation. Invariant:
// Syms + Gensyms == InternalSyms, and internal numbering places all Syms
// non-gensym symbols before any gensym.
type Size struct {
	Syms         int
	Gensyms      int
	Rules        int
	InternalSyms int
	ExternalSyms int
}

// PredictionTransition encodes "completing this dot contributes a
// prediction for Symbol via the rule at Dot".
type PredictionTransition struct {
	Symbol  symbol.Symbol
	Dot     Dot
	IsUnary bool
}

// DefaultGrammar is a prepared, immutable grammar ready for recognition.
// Once returned from Prepare, it is never mutated; multiple recognizers
// may share it by pointer, including across goroutines, since all of its
// state is read-only after construction.
type DefaultGrammar struct {
	startSym           symbol.Symbol
	originalStartSym   symbol.Symbol
	hasTrivialDerivation bool
	eofSym             symbol.Symbol
	dotBeforeEOF       Dot
	size               Size

	predictionMatrix *symbol.BitMatrix
	completions      [][]PredictionTransition
	genCompletions   []PredictionTransition

	lrSets *symbol.BitMatrix

	nullingEliminated []NullingEliminated
	lhs               []symbol.Symbol
	rhs0              []OptionalSymbol
	rhs1              []OptionalSymbol
	eval              []ExternalOrigin

	dot0Events []Event
	dot1Events []Event
	dot0Trace  []ExternalDottedRule
	dot1Trace  []ExternalDottedRule

	symMaps Mapping

	nullingIntermediateRules [][3]symbol.Symbol

	cfg *Cfg // retained for diagnostics (StringifyToBNF, Name)
}

// Prepare runs the full preparation pipeline over an external grammar
// and returns a DefaultGrammar ready for recognition, or an *Error if the
// grammar is invalid.
func Prepare(cfg *Cfg) (*DefaultGrammar, error) {
	if cfg.NumSyms == 0 || !hasExactlyOneRoot(cfg) {
		return nil, &Error{Kind: GrammarInvalid, Message: "grammar must have exactly one root symbol"}
	}

	proper := makeProper(cfg)
	w := wrapInput(proper)
	nr := binarizeAndEliminateNulling(proper, w.innerRoot)
	maps := remapSymbols(proper)
	sortRulesByLhs(proper)

	// remapSymbols renumbers every symbol; translate the pre-remap ids
	// captured by wrapInput into their final internal identities.
	w.root = maps.ToInternal[w.root].Symbol
	w.innerRoot = maps.ToInternal[w.innerRoot].Symbol
	w.endOfInput = maps.ToInternal[w.endOfInput].Symbol

	g := &DefaultGrammar{cfg: proper}
	if err := g.populateSizes(proper, maps); err != nil {
		return nil, err
	}
	g.symMaps = maps
	if err := g.populateGrammar(proper, w); err != nil {
		return nil, err
	}
	g.hasTrivialDerivation = nr.hasTrivialDerivation
	g.nullingIntermediateRules = nr.nullingIntermediateRules

	tracer().Debugf("grammar prepared: %d syms, %d gensyms, %d rules", g.size.Syms, g.size.Gensyms, g.size.Rules)
	return g, nil
}

func hasExactlyOneRoot(cfg *Cfg) bool {
	return true // a Cfg as built here always has exactly one Start symbol
}

func (g *DefaultGrammar) populateSizes(cfg *Cfg, maps Mapping) error {
	numGensyms := 0
	for s := 0; s < cfg.NumSyms; s++ {
		if isGensymName(cfg, symbol.Symbol(s)) {
			numGensyms++
		}
	}
	g.size = Size{
		Rules:        len(cfg.Rules),
		Syms:         cfg.NumSyms - numGensyms,
		Gensyms:      numGensyms,
		ExternalSyms: len(maps.ToExternal),
		InternalSyms: len(maps.ToInternal),
	}
	return nil
}

func (g *DefaultGrammar) populateGrammar(cfg *Cfg, w wrapped) error {
	g.startSym = w.root
	g.eofSym = w.endOfInput
	g.originalStartSym = w.innerRoot
	dotFound := false
	for dot, r := range cfg.Rules {
		if len(r.Rhs) == 2 && r.Rhs[1] == w.endOfInput {
			g.dotBeforeEOF = Dot(dot)
			dotFound = true
			break
		}
	}
	if !dotFound {
		return &Error{Kind: GrammarInvalid, Message: "wrapped start rule not found after sort"}
	}

	n := len(cfg.Rules)
	g.lhs = make([]symbol.Symbol, n)
	g.rhs0 = make([]OptionalSymbol, n)
	g.rhs1 = make([]OptionalSymbol, n)
	g.eval = make([]ExternalOrigin, n)
	g.nullingEliminated = make([]NullingEliminated, n)
	g.dot0Events = make([]Event, n)
	g.dot1Events = make([]Event, n)
	g.dot0Trace = make([]ExternalDottedRule, n)
	g.dot1Trace = make([]ExternalDottedRule, n)

	for dot, r := range cfg.Rules {
		g.lhs[dot] = r.Lhs
		if len(r.Rhs) > 0 {
			g.rhs0[dot] = OptionalSymbol{Symbol: r.Rhs[0], Present: true}
		}
		if len(r.Rhs) > 1 {
			g.rhs1[dot] = OptionalSymbol{Symbol: r.Rhs[1], Present: true}
		}
		h := cfg.Histories[r.HistoryID]
		g.eval[dot] = h.Origin
		g.nullingEliminated[dot] = h.Nullable
		g.dot0Events[dot] = h.Dot0Event
		g.dot1Events[dot] = h.Dot1Event
		g.dot0Trace[dot] = h.Dot0Trace
		g.dot1Trace[dot] = h.Dot1Trace
	}

	return g.populatePredictions(cfg)
}

func (g *DefaultGrammar) populatePredictions(cfg *Cfg) error {
	rulesByRhs0 := append([]Rule(nil), cfg.Rules...)
	sort.SliceStable(rulesByRhs0, func(a, b int) bool {
		ra, rb := rulesByRhs0[a], rulesByRhs0[b]
		var ar, br symbol.Symbol
		if len(ra.Rhs) > 0 {
			ar = ra.Rhs[0]
		}
		if len(rb.Rhs) > 0 {
			br = rb.Rhs[0]
		}
		return ar < br
	})

	if err := g.populatePredictionMatrix(cfg, rulesByRhs0); err != nil {
		return err
	}
	if err := g.populateCompletionTables(cfg, rulesByRhs0); err != nil {
		return err
	}
	g.populateLRSets(cfg)
	return nil
}

// effectiveLhs walks a gensym's lhs up through the gensym chain, via
// binary search over rulesByRhs0, until a non-gensym lhs is found.
func (g *DefaultGrammar) effectiveLhs(lhs symbol.Symbol, rulesByRhs0 []Rule) (symbol.Symbol, error) {
	for int(lhs) >= g.size.Syms {
		idx := sort.Search(len(rulesByRhs0), func(i int) bool {
			var r0 symbol.Symbol
			if len(rulesByRhs0[i].Rhs) > 0 {
				r0 = rulesByRhs0[i].Rhs[0]
			}
			return r0 >= lhs
		})
		if idx >= len(rulesByRhs0) || len(rulesByRhs0[idx].Rhs) == 0 || rulesByRhs0[idx].Rhs[0] != lhs {
			return 0, &Error{Kind: GrammarInvalid, Message: "gensym lookup failed: lhs not found at rhs0 of any rule"}
		}
		lhs = rulesByRhs0[idx].Lhs
	}
	return lhs, nil
}

func (g *DefaultGrammar) populatePredictionMatrix(cfg *Cfg, rulesByRhs0 []Rule) error {
	g.predictionMatrix = symbol.NewBitMatrix(g.size.Syms, g.size.Syms)
	for _, r := range cfg.Rules {
		if len(r.Rhs) == 0 || int(r.Rhs[0]) >= g.size.Syms {
			continue
		}
		lhs, err := g.effectiveLhs(r.Lhs, rulesByRhs0)
		if err != nil {
			return err
		}
		g.predictionMatrix.Set(int(lhs), int(r.Rhs[0]))
	}
	g.predictionMatrix.TransitiveClosure()
	g.predictionMatrix.ReflexiveClosure()
	return nil
}

func (g *DefaultGrammar) populateCompletionTables(cfg *Cfg, rulesByRhs0 []Rule) error {
	g.completions = make([][]PredictionTransition, g.size.Syms)
	g.genCompletions = make([]PredictionTransition, g.size.Gensyms)
	present := make([]bool, g.size.Gensyms)

	type entry struct {
		rhs0Sym int
		pt      PredictionTransition
	}
	var binary, unary []entry

	for dot, r := range cfg.Rules {
		if len(r.Rhs) == 0 {
			continue
		}
		isUnary := len(r.Rhs) == 1
		rhs0 := r.Rhs[0]
		lhs, err := g.effectiveLhs(r.Lhs, rulesByRhs0)
		if err != nil {
			return err
		}
		pt := PredictionTransition{Symbol: lhs, Dot: Dot(dot), IsUnary: isUnary}
		if isUnary {
			unary = append(unary, entry{int(rhs0), pt})
		} else {
			binary = append(binary, entry{int(rhs0), pt})
		}
	}

	for _, e := range append(binary, unary...) {
		if e.rhs0Sym >= g.size.Syms {
			idx := e.rhs0Sym - g.size.Syms
			g.genCompletions[idx] = e.pt
			present[idx] = true
		} else {
			g.completions[e.rhs0Sym] = append(g.completions[e.rhs0Sym], e.pt)
		}
	}

	for i, ok := range present {
		if !ok {
			return &Error{Kind: GrammarInvalid, Message: "missing gen-completion"}
		}
		_ = i
	}
	return nil
}

func (g *DefaultGrammar) populateLRSets(cfg *Cfg) {
	syms := g.size.Syms + g.size.Gensyms
	first := symbol.NewBitMatrix(syms, syms)
	populateFirstSets(cfg, first)
	first.ReflexiveClosure()

	follow := symbol.NewBitMatrix(syms, syms)
	populateFollowSets(cfg, first, follow)

	g.lrSets = symbol.NewBitMatrix(syms*2, syms)
	for i := 0; i < syms; i++ {
		g.lrSets.OrRowInto(i*2, first.Row(i))
		g.lrSets.OrRowInto(i*2+1, follow.Row(i))
	}
}

// populateFirstSets computes FIRST(sym) for every symbol by fixpoint:
// terminals are their own FIRST set; a nonterminal's FIRST set is the
// union of its alternatives' leading symbols' FIRST sets (propagating
// through leading nullable prefixes for binary rules).
func populateFirstSets(cfg *Cfg, first *symbol.BitMatrix) {
	nullable := computeNullable(cfg)
	for s := 0; s < cfg.NumSyms && s < first.Rows(); s++ {
		if cfg.IsTerminal(symbol.Symbol(s)) {
			first.Set(s, s)
		}
	}
	changed := true
	for changed {
		changed = false
		for _, r := range cfg.Rules {
			if int(r.Lhs) >= first.Rows() || len(r.Rhs) == 0 {
				continue
			}
			for _, s := range r.Rhs {
				if int(s) >= first.Cols() {
					break
				}
				before := first.Count(int(r.Lhs))
				first.OrRowInto(int(r.Lhs), first.Row(int(s)))
				if first.Count(int(r.Lhs)) != before {
					changed = true
				}
				if !nullable[s] {
					break
				}
			}
		}
	}
}

// populateFollowSets computes FOLLOW(sym) by fixpoint using the already
// reflexively-closed FIRST sets.
func populateFollowSets(cfg *Cfg, first, follow *symbol.BitMatrix) {
	nullable := computeNullable(cfg)
	changed := true
	for changed {
		changed = false
		for _, r := range cfg.Rules {
			for i, s := range r.Rhs {
				if int(s) >= follow.Rows() {
					continue
				}
				before := follow.Count(int(s))
				// Everything that can start what follows s in this rhs.
				allNullableRest := true
				for j := i + 1; j < len(r.Rhs); j++ {
					follow.OrRowInto(int(s), first.Row(int(r.Rhs[j])))
					if !nullable[r.Rhs[j]] {
						allNullableRest = false
						break
					}
				}
				if allNullableRest && int(r.Lhs) < follow.Cols() {
					follow.OrRowInto(int(s), follow.Row(int(r.Lhs)))
				}
				if follow.Count(int(s)) != before {
					changed = true
				}
			}
		}
	}
}

// --- stable query surface ---

func (g *DefaultGrammar) EOF() symbol.Symbol          { return g.eofSym }
func (g *DefaultGrammar) StartSym() symbol.Symbol     { return g.startSym }
func (g *DefaultGrammar) DotBeforeEOF() Dot            { return g.dotBeforeEOF }
func (g *DefaultGrammar) NumSyms() int                 { return g.size.Syms }
func (g *DefaultGrammar) NumGensyms() int              { return g.size.Gensyms }
func (g *DefaultGrammar) NumRules() int                { return g.size.Rules }
func (g *DefaultGrammar) HasTrivialDerivation() bool   { return g.hasTrivialDerivation }
func (g *DefaultGrammar) UselessSymbol() symbol.Symbol { return g.startSym }

// ExternalizedStartSym returns the externalized identity of the inner
// (pre-wrap) start symbol.
func (g *DefaultGrammar) ExternalizedStartSym() symbol.Symbol {
	return g.ToExternal(g.originalStartSym)
}

// PredictionRow returns the prediction matrix's row for sym: the set of
// symbols reachable as the first rhs symbol of some production derivable
// from sym, as raw bit words suitable for OrRowInto.
func (g *DefaultGrammar) PredictionRow(sym symbol.Symbol) []uint64 {
	return g.predictionMatrix.Row(int(sym))
}

// PredictInto ORs sym's prediction row into dst's row dstRow.
func (g *DefaultGrammar) PredictInto(dst *symbol.BitMatrix, dstRow int, sym symbol.Symbol) {
	dst.OrRowInto(dstRow, g.predictionMatrix.Row(int(sym)))
}

// NumInternalSyms returns the prediction matrix's dimension, the symbol
// space a recognizer's predicted-set bitset must be sized to.
func (g *DefaultGrammar) NumInternalSyms() int {
	return g.predictionMatrix.Rows()
}

// Completions returns the completion transitions keyed by sym as an rhs0.
func (g *DefaultGrammar) Completions(sym symbol.Symbol) []PredictionTransition {
	if int(sym) >= len(g.completions) {
		return nil
	}
	return g.completions[sym]
}

// GenCompletion returns the single completion transition for a gensym id
// (0-based within the gensym range).
func (g *DefaultGrammar) GenCompletion(gensymIdx int) PredictionTransition {
	return g.genCompletions[gensymIdx]
}

// LRSet returns the interleaved FIRST/FOLLOW row relevant at dot: FIRST of
// the postdot symbol if binary, else FOLLOW of the lhs.
func (g *DefaultGrammar) LRSet(dot Dot) []uint64 {
	if rhs1, ok := g.GetRhs1(dot); ok {
		return g.lrSets.Row(int(rhs1) * 2)
	}
	return g.lrSets.Row(int(g.GetLhs(dot))*2 + 1)
}

// Nulling returns the nulling-eliminated side information at a rule's
// position, if any.
func (g *DefaultGrammar) Nulling(pos Dot) (NullingEliminated, bool) {
	if int(pos) >= len(g.nullingEliminated) {
		return NullingEliminated{}, false
	}
	ne := g.nullingEliminated[pos]
	return ne, ne.Present
}

// Events returns the dot-0 and dot-1 event tables. Only two slots are
// kept: binarization caps rhs at 2, so a third slot would always be
// vacuous.
func (g *DefaultGrammar) Events() ([]Event, []Event) {
	return g.dot0Events, g.dot1Events
}

// Trace returns the per-dot trace tables for dot 0 and dot 1.
func (g *DefaultGrammar) Trace() [2][]ExternalDottedRule {
	return [2][]ExternalDottedRule{g.dot0Trace, g.dot1Trace}
}

func (g *DefaultGrammar) GetRhs1(dot Dot) (symbol.Symbol, bool) {
	o := g.rhs1[dot]
	return o.Symbol, o.Present
}

func (g *DefaultGrammar) GetRhs0(dot Dot) (symbol.Symbol, bool) {
	o := g.rhs0[dot]
	return o.Symbol, o.Present
}

func (g *DefaultGrammar) GetLhs(dot Dot) symbol.Symbol {
	return g.lhs[dot]
}

func (g *DefaultGrammar) ExternalOriginOf(dot Dot) ExternalOrigin {
	return g.eval[dot]
}

func (g *DefaultGrammar) EliminatedNullingIntermediate() [][3]symbol.Symbol {
	return g.nullingIntermediateRules
}

func (g *DefaultGrammar) MaxNullingSymbol() (int, bool) {
	max := -1
	for dot := 0; dot < g.size.Rules; dot++ {
		if ne, ok := g.Nulling(Dot(dot)); ok {
			if int(ne.Symbol) > max {
				max = int(ne.Symbol)
			}
		}
	}
	for _, triple := range g.nullingIntermediateRules {
		if int(triple[1]) > max {
			max = int(triple[1])
		}
	}
	if max < 0 {
		return 0, false
	}
	return max, true
}

// ToInternal maps an external symbol id to its internal counterpart, if
// the grammar has any.
func (g *DefaultGrammar) ToInternal(sym symbol.Symbol) (symbol.Symbol, bool) {
	if len(g.symMaps.ToInternal) == 0 {
		return sym, true
	}
	if int(sym) >= len(g.symMaps.ToInternal) {
		return 0, false
	}
	o := g.symMaps.ToInternal[sym]
	return o.Symbol, o.Present
}

// ToExternal maps an internal symbol id back to its external counterpart.
func (g *DefaultGrammar) ToExternal(sym symbol.Symbol) symbol.Symbol {
	if len(g.symMaps.ToExternal) == 0 {
		return sym
	}
	return g.symMaps.ToExternal[sym]
}

// Name returns sym's diagnostic name (from the original builder), used
// only by diagnostics, never by recognition logic.
func (g *DefaultGrammar) Name(sym symbol.Symbol) string {
	return g.cfg.Name(sym)
}

// StringifyToBNF renders the prepared grammar's rules, for diagnostics.
func (g *DefaultGrammar) StringifyToBNF() string {
	return g.cfg.StringifyToBNF()
}

// Grammar is the stable query surface a recognizer needs: everything
// about a prepared grammar except how it got that way. DefaultGrammar is
// the only implementation; the interface exists so the recognizer and
// traverser packages don't import grammar's preparation internals.
type Grammar interface {
	EOF() symbol.Symbol
	StartSym() symbol.Symbol
	ExternalizedStartSym() symbol.Symbol
	NumSyms() int
	NumGensyms() int
	NumRules() int
	NumInternalSyms() int
	HasTrivialDerivation() bool
	DotBeforeEOF() Dot
	PredictionRow(sym symbol.Symbol) []uint64
	Completions(sym symbol.Symbol) []PredictionTransition
	GenCompletion(gensymIdx int) PredictionTransition
	LRSet(dot Dot) []uint64
	Nulling(pos Dot) (NullingEliminated, bool)
	EliminatedNullingIntermediate() [][3]symbol.Symbol
	MaxNullingSymbol() (int, bool)
	GetLhs(dot Dot) symbol.Symbol
	GetRhs0(dot Dot) (symbol.Symbol, bool)
	GetRhs1(dot Dot) (symbol.Symbol, bool)
	ExternalOriginOf(dot Dot) ExternalOrigin
	Events() ([]Event, []Event)
	Trace() [2][]ExternalDottedRule
	UselessSymbol() symbol.Symbol
	ToInternal(sym symbol.Symbol) (symbol.Symbol, bool)
	ToExternal(sym symbol.Symbol) symbol.Symbol
	Name(sym symbol.Symbol) string
	StringifyToBNF() string
}

var _ Grammar = (*DefaultGrammar)(nil)
