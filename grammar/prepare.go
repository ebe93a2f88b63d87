package grammar

import (
	"sort"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/bocage/symbol"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("bocage.grammar")
}

// makeProper eliminates useless symbols: those that are not productive
// (cannot derive any terminal string) or not reachable from the start
// symbol. Surviving symbols are renumbered contiguously, preserving their
// relative order, via a fresh Cfg.
func makeProper(cfg *Cfg) *Cfg {
	productive := computeProductive(cfg)
	reachable := computeReachable(cfg, productive)

	keep := treeset.NewWith(utils.IntComparator)
	for s := 0; s < cfg.NumSyms; s++ {
		if productive.Contains(s) && reachable.Contains(s) {
			keep.Add(s)
		}
	}
	keep.Add(int(cfg.Start))

	remap := make(map[symbol.Symbol]symbol.Symbol, keep.Size())
	next := symbol.Symbol(0)
	for _, v := range keep.Values() {
		old := symbol.Symbol(v.(int))
		remap[old] = next
		next++
	}

	out := NewCfg(int(next))
	out.Start = remap[cfg.Start]
	for old, s := range remap {
		if cfg.IsTerminal(old) {
			out.MarkTerminal(s)
		}
		out.SetName(s, cfg.Name(old))
	}
	for _, r := range cfg.Rules {
		if !allMapped(remap, r.Lhs, r.Rhs) {
			continue
		}
		newRhs := make([]symbol.Symbol, len(r.Rhs))
		for i, s := range r.Rhs {
			newRhs[i] = remap[s]
		}
		out.AddRule(remap[r.Lhs], newRhs, cfg.Histories[r.HistoryID])
	}
	tracer().Debugf("makeProper: %d -> %d symbols", cfg.NumSyms, out.NumSyms)
	return out
}

func allMapped(remap map[symbol.Symbol]symbol.Symbol, lhs symbol.Symbol, rhs []symbol.Symbol) bool {
	if _, ok := remap[lhs]; !ok {
		return false
	}
	for _, s := range rhs {
		if _, ok := remap[s]; !ok {
			return false
		}
	}
	return true
}

func computeProductive(cfg *Cfg) *treeset.Set {
	productive := treeset.NewWith(utils.IntComparator)
	for s := 0; s < cfg.NumSyms; s++ {
		if cfg.IsTerminal(symbol.Symbol(s)) {
			productive.Add(s)
		}
	}
	changed := true
	for changed {
		changed = false
		for _, r := range cfg.Rules {
			if productive.Contains(int(r.Lhs)) {
				continue
			}
			ok := true
			for _, s := range r.Rhs {
				if !productive.Contains(int(s)) {
					ok = false
					break
				}
			}
			if ok {
				productive.Add(int(r.Lhs))
				changed = true
			}
		}
	}
	return productive
}

func computeReachable(cfg *Cfg, productive *treeset.Set) *treeset.Set {
	reachable := treeset.NewWith(utils.IntComparator)
	reachable.Add(int(cfg.Start))
	changed := true
	for changed {
		changed = false
		for _, r := range cfg.Rules {
			if !reachable.Contains(int(r.Lhs)) {
				continue
			}
			for _, s := range r.Rhs {
				if !reachable.Contains(int(s)) {
					reachable.Add(int(s))
					changed = true
				}
			}
		}
	}
	return reachable
}

// wrapped describes the synthesized outer start rule S' -> S ⊣.
type wrapped struct {
	root        symbol.Symbol
	innerRoot   symbol.Symbol
	endOfInput  symbol.Symbol
	dotBeforeEOF Dot
}

// wrapInput introduces a fresh outer start S' -> S ⊣, where ⊣ is a
// synthesized end-of-input terminal, recording the dot immediately
// preceding ⊣.
func wrapInput(cfg *Cfg) wrapped {
	inner := cfg.Start
	eof := cfg.NewSymbol()
	cfg.MarkTerminal(eof)
	cfg.SetName(eof, "⊣")
	outer := cfg.NewSymbol()
	cfg.SetName(outer, "⊣start⊣")
	dot := cfg.AddRule(outer, []symbol.Symbol{inner, eof}, History{})
	cfg.Start = outer
	return wrapped{root: outer, innerRoot: inner, endOfInput: eof, dotBeforeEOF: dot}
}

// nullingResult is the output of binarizeAndEliminateNulling: the
// binarized main grammar (every rule rhs length <= 2), plus the nulling
// subgrammar's intermediate-rule catalog and whether the start symbol
// itself has a trivial (all-ε) derivation.
type nullingResult struct {
	nullingIntermediateRules [][3]symbol.Symbol
	hasTrivialDerivation     bool
}

// binarizeAndEliminateNulling rewrites every rule to rhs length <= 2,
// introducing gensyms for longer rhs, and separately records how nullable
// leading/trailing symbols were elided from each rule so the recognizer
// can re-synthesize their virtual derivations. innerRoot is the grammar's
// real start symbol, pre-wrapInput: by the time this runs, cfg.Start has
// already been rewritten to the wrapped outer S' -> innerRoot, eofSym,
// which is never itself nullable (eofSym is a terminal), so
// hasTrivialDerivation must be read off innerRoot, not cfg.Start.
func binarizeAndEliminateNulling(cfg *Cfg, innerRoot symbol.Symbol) nullingResult {
	nullable := computeNullable(cfg)

	var rewritten []Rule
	var histories []History
	var nullingRules [][3]symbol.Symbol

	addRule := func(lhs symbol.Symbol, rhs []symbol.Symbol, h History) {
		rewritten = append(rewritten, Rule{Lhs: lhs, Rhs: rhs, HistoryID: len(histories)})
		histories = append(histories, h)
	}

	for _, r := range cfg.Rules {
		h := cfg.Histories[r.HistoryID]
		switch len(r.Rhs) {
		case 0:
			// Purely nulling rule; contributes no structure to the main
			// grammar, only to has_trivial_derivation when lhs is start.
			continue
		case 1:
			// A unary rule's sole symbol can't be shortened further;
			// its own nullability (if any) is handled when it is itself
			// predicted/completed, not by eliding it here.
			addRule(r.Lhs, r.Rhs, h)
		case 2:
			addRule(r.Lhs, r.Rhs, h)
			if nullable[r.Rhs[0]] {
				elidedH := h
				elidedH.Nullable = NullingEliminated{Symbol: r.Rhs[0], Side: Left, Present: true}
				addRule(r.Lhs, []symbol.Symbol{r.Rhs[1]}, elidedH)
			}
			if nullable[r.Rhs[1]] {
				elidedH := h
				elidedH.Nullable = NullingEliminated{Symbol: r.Rhs[1], Side: Right, Present: true}
				addRule(r.Lhs, []symbol.Symbol{r.Rhs[0]}, elidedH)
			}
		default:
			// Chain gensyms left-nested, with every gensym occupying
			// the rhs0 position of its consuming rule: G2 -> x0 x1;
			// G3 -> G2 x2; ...; lhs -> G(n-1) x(n-1). A gensym must sit at
			// rhs0 of exactly the rule above it in the chain, since
			// effective_lhs (and gen_completions) finds a gensym's real
			// lhs by binary-searching rules keyed by rhs0.
			prev := cfg.NewSymbol()
			cfg.SetName(prev, cfg.Name(r.Lhs)+"'")
			addRuleWithNulling(cfg, nullable, addRule, prev, r.Rhs[0], r.Rhs[1], History{})
			nullable[prev] = nullable[r.Rhs[0]] && nullable[r.Rhs[1]]
			for i := 2; i < len(r.Rhs)-1; i++ {
				next := cfg.NewSymbol()
				cfg.SetName(next, cfg.Name(r.Lhs)+"'")
				addRuleWithNulling(cfg, nullable, addRule, next, prev, r.Rhs[i], History{})
				nullable[next] = nullable[prev] && nullable[r.Rhs[i]]
				prev = next
			}
			addRuleWithNulling(cfg, nullable, addRule, r.Lhs, prev, r.Rhs[len(r.Rhs)-1], h)
		}
	}

	hasTrivial := nullable[innerRoot]

	out := &Cfg{Rules: rewritten, Histories: histories, Start: cfg.Start, NumSyms: cfg.NumSyms, terminal: cfg.terminal, names: cfg.names}
	*cfg = *out

	// nullingIntermediateRules: triples [lhs, rhs0, rhs1] for rules whose
	// lhs is a gensym introduced purely to carry nullability (no external
	// origin) and whose rhs is binary.
	for _, r := range cfg.Rules {
		h := cfg.Histories[r.HistoryID]
		if len(r.Rhs) == 2 && !h.Origin.Present && isGensymName(cfg, r.Lhs) {
			nullingRules = append(nullingRules, [3]symbol.Symbol{r.Lhs, r.Rhs[0], r.Rhs[1]})
		}
	}

	return nullingResult{nullingIntermediateRules: nullingRules, hasTrivialDerivation: hasTrivial}
}

func isGensymName(cfg *Cfg, s symbol.Symbol) bool {
	name := cfg.Name(s)
	return len(name) > 0 && name[len(name)-1] == '\''
}

func addRuleWithNulling(cfg *Cfg, nullable map[symbol.Symbol]bool, addRule func(symbol.Symbol, []symbol.Symbol, History), lhs, left, right symbol.Symbol, h History) {
	addRule(lhs, []symbol.Symbol{left, right}, h)
	if nullable[left] {
		elided := h
		elided.Nullable = NullingEliminated{Symbol: left, Side: Left, Present: true}
		addRule(lhs, []symbol.Symbol{right}, elided)
	}
	if nullable[right] {
		elided := h
		elided.Nullable = NullingEliminated{Symbol: right, Side: Right, Present: true}
		addRule(lhs, []symbol.Symbol{left}, elided)
	}
}

func computeNullable(cfg *Cfg) map[symbol.Symbol]bool {
	nullable := make(map[symbol.Symbol]bool)
	for _, r := range cfg.Rules {
		if len(r.Rhs) == 0 {
			nullable[r.Lhs] = true
		}
	}
	changed := true
	for changed {
		changed = false
		for _, r := range cfg.Rules {
			if nullable[r.Lhs] || len(r.Rhs) == 0 {
				continue
			}
			allNullable := true
			for _, s := range r.Rhs {
				if !nullable[s] {
					allNullable = false
					break
				}
			}
			if allNullable {
				nullable[r.Lhs] = true
				changed = true
			}
		}
	}
	return nullable
}

// Mapping carries the external<->internal symbol renumbering produced by
// remapSymbols. Either slice may be empty, meaning identity.
type Mapping struct {
	ToInternal []OptionalSymbol
	ToExternal []symbol.Symbol
}

// OptionalSymbol is a Symbol that may be absent (an external id with no
// internal counterpart rejects the corresponding token).
type OptionalSymbol struct {
	Symbol  symbol.Symbol
	Present bool
}

// findGensyms detects gensyms by occurrence pattern: a symbol is a gensym
// iff it appears as exactly one rule's lhs, exactly one rhs-head position,
// no other rhs position, and that rule carries no external origin.
func findGensyms(cfg *Cfg) map[symbol.Symbol]bool {
	type occ struct{ lhsCount, rhsHeadCount, otherCount int }
	occs := make([]occ, cfg.NumSyms)
	for _, r := range cfg.Rules {
		if len(r.Rhs) == 2 && r.Lhs != r.Rhs[0] {
			occs[r.Lhs].lhsCount++
			occs[r.Rhs[0]].rhsHeadCount++
		}
		for _, s := range r.Rhs[min1(len(r.Rhs)):] {
			occs[s].otherCount++
		}
	}
	gensyms := make(map[symbol.Symbol]bool)
	for _, r := range cfg.Rules {
		o := occs[r.Lhs]
		if o.lhsCount == 1 && o.rhsHeadCount == 1 && o.otherCount == 0 && !cfg.Histories[r.HistoryID].Origin.Present {
			gensyms[r.Lhs] = true
		}
	}
	return gensyms
}

func min1(n int) int {
	if n < 1 {
		return n
	}
	return 1
}

// remapSymbols computes a gensym set and a partial order (every unary
// rule A -> B records A < B; every non-gensym precedes every gensym),
// takes its transitive closure, and reorders symbols consistently so
// gensyms end up numbered after all other symbols. Unused symbols (those
// with zero total occurrences) are dropped.
func remapSymbols(cfg *Cfg) Mapping {
	gensyms := findGensyms(cfg)

	n := cfg.NumSyms
	order := make([][]bool, n)
	for i := range order {
		order[i] = make([]bool, n)
	}
	for _, r := range cfg.Rules {
		if len(r.Rhs) == 1 && r.Lhs != r.Rhs[0] {
			order[r.Lhs][r.Rhs[0]] = true
		}
	}
	for i := 0; i < n; i++ {
		if gensyms[symbol.Symbol(i)] {
			continue
		}
		for j := 0; j < n; j++ {
			if gensyms[symbol.Symbol(j)] {
				order[i][j] = true
			}
		}
	}
	// Transitive closure (Warshall).
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if order[i][k] {
				for j := 0; j < n; j++ {
					if order[k][j] {
						order[i][j] = true
					}
				}
			}
		}
	}

	used := make([]bool, n)
	for _, r := range cfg.Rules {
		used[r.Lhs] = true
		for _, s := range r.Rhs {
			used[s] = true
		}
	}
	used[cfg.Start] = true

	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if used[i] {
			ids = append(ids, i)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		i, j := ids[a], ids[b]
		if order[i][j] {
			return true
		}
		if order[j][i] {
			return false
		}
		return false
	})

	toExternal := make([]symbol.Symbol, len(ids))
	toInternal := make([]OptionalSymbol, n)
	for newID, oldID := range ids {
		toExternal[newID] = symbol.Symbol(oldID)
		toInternal[oldID] = OptionalSymbol{Symbol: symbol.Symbol(newID), Present: true}
	}

	remap := make(map[symbol.Symbol]symbol.Symbol, len(ids))
	for newID, oldID := range ids {
		remap[symbol.Symbol(oldID)] = symbol.Symbol(newID)
	}

	var newRules []Rule
	var newHistories []History
	for _, r := range cfg.Rules {
		newRhs := make([]symbol.Symbol, len(r.Rhs))
		for i, s := range r.Rhs {
			newRhs[i] = remap[s]
		}
		newRules = append(newRules, Rule{Lhs: remap[r.Lhs], Rhs: newRhs, HistoryID: len(newHistories)})
		newHistories = append(newHistories, cfg.Histories[r.HistoryID])
	}
	oldTerminal, oldNames := cfg.terminal, cfg.names
	cfg.terminal = make(map[symbol.Symbol]bool)
	cfg.names = make(map[symbol.Symbol]string)
	for oldID, newID := range remap {
		if oldTerminal[oldID] {
			cfg.terminal[newID] = true
		}
		cfg.names[newID] = oldNames[oldID]
	}
	cfg.Rules = newRules
	cfg.Histories = newHistories
	cfg.Start = remap[cfg.Start]
	cfg.NumSyms = len(ids)

	return Mapping{ToInternal: toInternal, ToExternal: toExternal}
}

// sortRulesByLhs stably sorts rules by their lhs symbol; the resulting
// positions become their Dot identities.
func sortRulesByLhs(cfg *Cfg) {
	sort.SliceStable(cfg.Rules, func(a, b int) bool {
		return cfg.Rules[a].Lhs < cfg.Rules[b].Lhs
	})
}
