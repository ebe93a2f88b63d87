// Package earley implements an Earley recognizer over a prepared
// grammar.Grammar, building a parse forest through the small forest.Forest
// capability interface so the same recognition loop works whether the
// caller wants a full Bocage or a plain accept/reject answer.
package earley

import (
	"github.com/cnf/structhash"

	"github.com/npillmayer/bocage/forest"
	"github.com/npillmayer/bocage/grammar"
	"github.com/npillmayer/bocage/iteratable"
	"github.com/npillmayer/bocage/symbol"
	"github.com/npillmayer/bocage/vec2d"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'bocage.earley'.
func tracer() tracing.Trace {
	return tracing.Select("bocage.earley")
}

// Parser recognizes input against a prepared grammar, one token at a
// time, recording derivations into a forest.Forest. Zero value is not
// usable; construct with NewParser.
type Parser struct {
	grammar grammar.Grammar
	forest  forest.Forest

	// predicted holds, per earleme, the set of internal symbols that may
	// legally start a new rule there. Row e is ready before earleme e is
	// scanned.
	predicted *symbol.BitMatrix

	// medial holds the chart of open-dot items, one sealed set per
	// earleme; chart[e] is the set of items waiting to consume input
	// starting at earleme e.
	medial *vec2d.Vec2d[MedialItem]

	earleme uint32

	// seen dedupes the medial items pushed into the in-progress earleme:
	// two distinct completions at the same origin can independently
	// derive the same [rule, origin] medial item, and only the first may
	// be pushed.
	seen *iteratable.Set

	storeBacklinks bool
	backlinks      map[forest.NodeHandle]string

	// root is the forest handle for the wrapped start symbol's completion
	// at origin 0 in the final earleme, valid only once Parse has
	// returned accepted == true.
	root forest.NodeHandle

	// nullIntermediate maps a binarization gensym to the pair it stands
	// for, so an elided gensym's nulling derivation can be rebuilt
	// recursively rather than collapsed into one opaque leaf.
	nullIntermediate map[symbol.Symbol][2]symbol.Symbol
}

// Root returns the forest handle of the accepted parse's top node. It is
// only meaningful after a call to Parse returned accepted == true, and
// only when the Parser was constructed WithForest(a *forest.Bocage); with
// the default NullForest it is always forest.NullHandle.
func (p *Parser) Root() forest.NodeHandle {
	return p.root
}

// NewParser prepares a Parser to recognize up to numTokens real input
// symbols (excluding the synthetic end-of-input symbol the grammar was
// wrapped with) against g. By default the parser discards derivations,
// tracking acceptance only; pass WithForest to retain a Bocage.
func NewParser(g grammar.Grammar, numTokens int, opts ...Option) *Parser {
	p := &Parser{
		grammar: g,
		forest:  forest.NullForest{},
		root:    forest.NullHandle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.storeBacklinks {
		p.backlinks = make(map[forest.NodeHandle]string)
	}

	rows := numTokens + 2 // earlemes 0..numTokens+1 (real tokens plus EOF)
	p.predicted = symbol.NewBitMatrix(rows, g.NumInternalSyms())
	p.medial = vec2d.NewWithCapacity[MedialItem](vec2d.Capacity{Chart: numTokens * 2, Indices: rows})

	p.predicted.OrRowInto(0, g.PredictionRow(g.StartSym()))
	p.medial.NextSet() // seal the (empty) medial set for earleme 0
	p.seen = iteratable.NewSet()

	intermediate := g.EliminatedNullingIntermediate()
	p.nullIntermediate = make(map[symbol.Symbol][2]symbol.Symbol, len(intermediate))
	for _, triple := range intermediate {
		p.nullIntermediate[triple[0]] = [2]symbol.Symbol{triple[1], triple[2]}
	}
	return p
}

// Parse recognizes tokens, a sequence of internal symbol ids, appending
// the grammar's own EOF symbol as the final scan. It returns whether the
// wrapped start symbol was completed at origin 0 in the final earleme.
//
// Scanning an id the grammar has no completion for simply fails to
// extend any chart item, surfacing as accepted == false, not an error or
// a panic; err is reserved for future use. Grammar-level inconsistencies
// (an out-of-range dot, a rule missing rhs1 where the tables claim
// otherwise) are programmer errors and panic.
func (p *Parser) Parse(tokens []symbol.Symbol) (accepted bool, err error) {
	all := make([]symbol.Symbol, 0, len(tokens)+1)
	all = append(all, tokens...)
	all = append(all, p.grammar.EOF())

	for i, tok := range all {
		origin := uint32(i)
		current := origin + 1
		p.seen = iteratable.NewSet()
		leaf := p.forest.Leaf(tok, current)
		seed := p.scanComplete(tok, origin, leaf)

		if atEnd := p.completePhase(current, seed, uint32(len(all))); atEnd {
			accepted = true
		}

		p.medial.NextSet()
		p.earleme = current

		if int(p.earleme) < p.predicted.Rows() {
			p.predictRow(int(p.earleme))
		}

		tracer().Debugf("earleme %d: scanned %s, %d medial items pending", p.earleme, p.grammar.Name(tok), len(p.medial.Last()))
	}

	if len(tokens) == 0 && p.grammar.HasTrivialDerivation() {
		accepted = true
	}
	return accepted, nil
}

// predictRow ORs the prediction rows of every postdot symbol appearing in
// the medial set just sealed at earleme-1 into predicted row earleme.
func (p *Parser) predictRow(earleme int) {
	for _, item := range p.medial.Index(earleme) {
		if rhs1, ok := p.grammar.GetRhs1(item.Rule); ok {
			p.predicted.OrRowInto(earleme, p.grammar.PredictionRow(rhs1))
		}
	}
}

// spanKey identifies one (lhs, origin) completion group: every completed
// alternative sharing a key contributes one summand to the same Sum node.
type spanKey struct {
	sym    symbol.Symbol
	origin uint32
}

// factorRef is a Product factor that is either already a concrete forest
// handle (a terminal leaf, or a prior earleme's medial factor) or a
// same-earleme spanKey whose Sum node has not been built yet. Deferring
// same-earleme references lets discovery run to a full fixpoint before
// any Sum node is finalized, so a span reached through more than one
// derivation path is never closed out early.
type factorRef struct {
	handle forest.NodeHandle
	key    spanKey
	isKey  bool
}

func concreteFactor(h forest.NodeHandle) factorRef { return factorRef{handle: h} }
func keyFactor(k spanKey) factorRef                { return factorRef{key: k, isKey: true} }

// rawAlternative is one not-yet-built Product: a rule, the origin of the
// span it completes, and its factors, the factors possibly pointing at
// another spanKey still under discovery.
type rawAlternative struct {
	rule     grammar.Dot
	origin   uint32
	left     factorRef
	right    factorRef
	hasRight bool
}

// completePhase discovers every alternative completing at this earleme,
// across however many rounds of cascading that takes, before building any
// forest node. Discovery is symbol-level and handle-free, so it can run
// to a full fixpoint regardless of which span a later round's alternative
// turns out to belong to; only once discovery is exhausted does build
// construct each span's Sum node, resolving same-earleme factors through
// memoized recursion (safe because a span can only ever depend on spans
// reached earlier in the same discovery sweep, never on itself).
func (p *Parser) completePhase(current uint32, seed []rawAlternative, finalPosition uint32) (acceptedHere bool) {
	edges := map[spanKey][]rawAlternative{}
	medialPushes := map[spanKey][]grammar.Dot{}
	queued := map[spanKey]bool{}
	var queue []spanKey

	for _, alt := range seed {
		k := spanKey{sym: p.grammar.GetLhs(alt.rule), origin: alt.origin}
		edges[k] = append(edges[k], alt)
		if !queued[k] {
			queued[k] = true
			queue = append(queue, k)
		}
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		p.explore(k, medialPushes, func(target spanKey, alt rawAlternative) {
			edges[target] = append(edges[target], alt)
			if !queued[target] {
				queued[target] = true
				queue = append(queue, target)
			}
		})
	}

	handles := map[spanKey]forest.NodeHandle{}
	var build func(k spanKey) forest.NodeHandle
	resolve := func(f factorRef) forest.NodeHandle {
		if f.isKey {
			return build(f.key)
		}
		return f.handle
	}
	build = func(k spanKey) forest.NodeHandle {
		if h, ok := handles[k]; ok {
			return h
		}
		for _, alt := range edges[k] {
			left := resolve(alt.left)
			var right forest.NodeHandle
			if alt.hasRight {
				right = resolve(alt.right)
			}
			prod := p.buildProduct(alt.rule, left, right, alt.hasRight)
			p.forest.PushSummand(prod)
			if p.storeBacklinks {
				p.backlinks[prod] = backlinkHash(alt.rule, k.origin)
			}
		}
		h := p.forest.Sum(k.sym, k.origin)
		handles[k] = h

		for _, dot := range medialPushes[k] {
			if p.seen.Add(medialKey{rule: dot, origin: k.origin}) {
				p.medial.PushItem(MedialItem{Rule: dot, Origin: k.origin, Factor: h})
			}
		}
		if k.sym == p.grammar.StartSym() && k.origin == 0 && current == finalPosition {
			acceptedHere = true
			p.root = h
			p.dumpAccept(k, current)
		}
		return h
	}
	for k := range edges {
		build(k)
	}
	return acceptedHere
}

// scanComplete reacts to a just-scanned terminal leaf spanning
// [origin, origin+1): it advances any medial item in chart[origin]
// waiting for the terminal (the classic completer step), and, if the
// terminal was predicted at origin, starts or completes any rule whose
// rhs0 is this terminal. All factors here are concrete immediately: the
// classic completer only ever reads chart[origin] for origin strictly
// before the current earleme, whose medial factors were finalized in a
// past completePhase call, and a scanned terminal's own leaf handle is
// never ambiguous.
func (p *Parser) scanComplete(sym symbol.Symbol, origin uint32, leaf forest.NodeHandle) []rawAlternative {
	var out []rawAlternative

	for _, item := range p.medial.Index(int(origin)) {
		if rhs1, ok := p.grammar.GetRhs1(item.Rule); ok && rhs1 == sym {
			out = append(out, rawAlternative{
				rule: item.Rule, origin: item.Origin,
				left: concreteFactor(item.Factor), right: concreteFactor(leaf), hasRight: true,
			})
		}
	}

	if int(sym) >= p.predicted.Cols() || !p.predicted.Get(int(origin), int(sym)) {
		return out
	}
	for _, pt := range p.transitionsFor(sym) {
		if pt.IsUnary {
			out = append(out, rawAlternative{
				rule: pt.Dot, origin: origin,
				left: concreteFactor(leaf), hasRight: false,
			})
		} else if p.seen.Add(medialKey{rule: pt.Dot, origin: origin}) {
			p.medial.PushItem(MedialItem{Rule: pt.Dot, Origin: origin, Factor: leaf})
		}
	}
	return out
}

// explore computes the downstream effects of k's discovery: which other
// spans gain a new alternative (reported via found, deferred through
// keyFactor(k) since k's own Sum node is not yet built), and which rules
// should receive a medial item once k's handle exists (recorded into
// medialPushes, flushed by completePhase's build step). explore runs
// exactly once per discovered key, since the downstream effects of a
// span's completion depend only on its (symbol, origin) identity, never
// on how many alternatives it turns out to have.
func (p *Parser) explore(k spanKey, medialPushes map[spanKey][]grammar.Dot, found func(spanKey, rawAlternative)) {
	for _, item := range p.medial.Index(int(k.origin)) {
		if rhs1, ok := p.grammar.GetRhs1(item.Rule); ok && rhs1 == k.sym {
			target := spanKey{sym: p.grammar.GetLhs(item.Rule), origin: item.Origin}
			found(target, rawAlternative{
				rule: item.Rule, origin: item.Origin,
				left: concreteFactor(item.Factor), right: keyFactor(k), hasRight: true,
			})
		}
	}
	for _, pt := range p.transitionsFor(k.sym) {
		if pt.IsUnary {
			target := spanKey{sym: p.grammar.GetLhs(pt.Dot), origin: k.origin}
			found(target, rawAlternative{
				rule: pt.Dot, origin: k.origin,
				left: keyFactor(k), hasRight: false,
			})
		} else {
			medialPushes[k] = append(medialPushes[k], pt.Dot)
		}
	}
}

// transitionsFor looks up sym's completion transitions, dispatching to
// the per-rhs0-symbol table for ordinary symbols and the flat gensym
// table for gensym ids (numbered NumSyms()..NumSyms()+NumGensyms()-1).
func (p *Parser) transitionsFor(sym symbol.Symbol) []grammar.PredictionTransition {
	if int(sym) < p.grammar.NumSyms() {
		return p.grammar.Completions(sym)
	}
	idx := int(sym) - p.grammar.NumSyms()
	if idx < 0 || idx >= p.grammar.NumGensyms() {
		return nil
	}
	return []grammar.PredictionTransition{p.grammar.GenCompletion(idx)}
}

// buildProduct turns a resolved (rule, left, right) triple into the
// forest Product it denotes, reinstating any symbol that
// binarize-and-eliminate-nulling elided from this rule's rhs as its full
// nulling derivation (see nullSubtree).
func (p *Parser) buildProduct(rule grammar.Dot, left, right forest.NodeHandle, hasRight bool) forest.NodeHandle {
	action := actionFor(p.grammar, rule)
	if ne, ok := p.grammar.Nulling(rule); ok {
		nullingHandle := p.nullSubtree(ne.Symbol)
		if ne.Side == grammar.Left {
			return p.forest.Product(action, nullingHandle, left, true)
		}
		return p.forest.Product(action, left, nullingHandle, true)
	}
	return p.forest.Product(action, left, right, hasRight)
}

// nullSubtree reconstructs sym's full nulling derivation. A gensym that
// binarization introduced to carry a span of several nullable symbols is
// recursively expanded via nullIntermediate, so every symbol originally
// written into the grammar reaches the evaluator as its own NullingLeaf,
// instead of being flattened into one opaque placeholder; a real
// (non-gensym) nullable symbol bottoms out as a memoized Nulling leaf.
func (p *Parser) nullSubtree(sym symbol.Symbol) forest.NodeHandle {
	rhs, ok := p.nullIntermediate[sym]
	if !ok {
		return p.forest.Nulling(sym)
	}
	left := p.nullSubtree(rhs[0])
	right := p.nullSubtree(rhs[1])
	product := p.forest.Product(0, left, right, true)
	return p.forest.Singleton(sym, product)
}

// actionFor resolves the action id a Product should carry: the builder's
// external origin for the rule if it supplied one, else the rule's own
// internal dot, which is stable for the lifetime of the prepared grammar.
func actionFor(g grammar.Grammar, dot grammar.Dot) uint32 {
	if origin := g.ExternalOriginOf(dot); origin.Present {
		return origin.Value
	}
	return dot
}

// backlinkHash fingerprints a completed alternative for diagnostics, in
// the same spirit as a recursive-descent parser's item/state hash: it
// lets a caller correlate a forest Product back to the chart item that
// produced it without carrying the item itself through the forest
// encoding.
func backlinkHash(rule grammar.Dot, origin uint32) string {
	h, err := structhash.Hash(struct {
		Rule   grammar.Dot
		Origin uint32
	}{Rule: rule, Origin: origin}, 1)
	if err != nil {
		panic(err)
	}
	return h
}
