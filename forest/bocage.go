package forest

import "github.com/npillmayer/bocage/symbol"

// Bocage is an append-only shared packed parse forest: a tag-packed array
// of 16-bit words recording every recognized derivation of a parse. Sum
// (OR) nodes enumerate a symbol's derivations at a span; Product (AND)
// nodes enumerate one rule application's factors.
type Bocage struct {
	words []uint16

	// pendingSummands accumulates Product nodes for the symbol currently
	// being completed, staged until Sum finalizes them under one header.
	pendingSummands []NodeHandle

	// nullingLeaves memoizes NullingLeaf handles per symbol so repeated
	// ε-derivations of the same symbol share one node.
	nullingLeaves map[symbol.Symbol]NodeHandle

	// evaluatedLeaves memoizes Evaluated leaf handles per (symbol, earleme).
	evaluatedLeaves map[leafKey]NodeHandle
}

type leafKey struct {
	sym     symbol.Symbol
	earleme uint32
}

// NewBocage returns an empty forest, sized for capacity words up front.
func NewBocage(capacity int) *Bocage {
	return &Bocage{
		words:           make([]uint16, 0, capacity),
		nullingLeaves:   make(map[symbol.Symbol]NodeHandle),
		evaluatedLeaves: make(map[leafKey]NodeHandle),
	}
}

// Push classifies node by the smallest tag that fits, appends its encoded
// words, and returns the handle at which it was written.
func (b *Bocage) Push(node Node) NodeHandle {
	position := uint32(len(b.words))
	tag, words := node.encode(position)
	b.words = append(b.words, words[:tag.Size()]...)
	return NodeHandle(position)
}

// SetUp rewrites the node at handle in place. If the new encoding is no
// longer than the old one, the tail is padded with Nop words. If it is
// longer, the method relocates the nodes that followed by re-pushing
// them — which is only correct when handle lies in the append-tail
// region (nothing beyond it has itself been referenced by a handle that
// assumes a fixed position), per the documented precondition inherited
// from the forest's staging discipline.
func (b *Bocage) SetUp(handle NodeHandle, node Node) {
	newTag, newWords := node.encode(uint32(handle))
	newSize := newTag.Size()

	oldTag, _ := tagFromWord(b.words[handle.Usize()])
	oldSize := oldTag.Size()

	if newSize <= oldSize {
		copy(b.words[handle.Usize():], newWords[:newSize])
		for i := newSize; i < oldSize; i++ {
			b.words[handle.Usize()+i] = uint16(TagNop)
		}
		return
	}

	// New encoding is larger: re-push every node from the old tail before
	// overwriting, so nothing is lost, then pad the gap with Nop.
	cur := handle
	end := NodeHandle(uint32(handle) + uint32(newSize))
	var relocated []Node
	for uint32(cur) < uint32(end) {
		n := b.Get(cur)
		relocated = append(relocated, n)
		tag, _ := tagFromWord(b.words[cur.Usize()])
		cur = NodeHandle(uint32(cur) + uint32(tag.Size()))
	}
	for _, n := range relocated {
		b.Push(n)
	}
	copy(b.words[handle.Usize():], newWords[:newSize])
	for i := uint32(handle) + uint32(newSize); i < uint32(cur); i++ {
		b.words[i] = uint16(TagNop)
	}
}

// Get decodes the single node at handle.
func (b *Bocage) Get(handle NodeHandle) Node {
	it := b.IterFrom(handle)
	n, ok := it.Next()
	if !ok {
		panic("forest: Get at an empty or out-of-range handle")
	}
	return n
}

// Iter lazily decodes nodes starting at a handle, transparently skipping
// Nop padding words.
type Iter struct {
	words  []uint16
	handle NodeHandle
}

// IterFrom returns an iterator over nodes starting at handle.
func (b *Bocage) IterFrom(handle NodeHandle) Iter {
	return Iter{words: b.words, handle: handle}
}

// Next decodes and returns the next node, or false at end of storage.
func (it *Iter) Next() (Node, bool) {
	for {
		pos := it.handle.Usize()
		if pos >= len(it.words) {
			return Node{}, false
		}
		head := it.words[pos]
		tag, ok := tagFromWord(head)
		if !ok {
			panic("forest: corrupt node tag")
		}
		if tag == TagNop {
			it.handle++
			continue
		}
		size := tag.Size()
		words := it.words[pos : pos+size]
		n := decode(tag, words, uint32(pos))
		it.handle = NodeHandle(uint32(pos) + uint32(size))
		return n, true
	}
}

// Peek returns the next node without advancing the iterator.
func (it Iter) Peek() (Node, bool) {
	return it.Next()
}

// --- forest-building discipline used by the recognizer ---

// Product pushes a new Product node for one rule factorization and
// returns its handle.
func (b *Bocage) Product(action uint32, left, right NodeHandle, hasRight bool) NodeHandle {
	if hasRight {
		return b.Push(BinaryProduct(action, left, right))
	}
	return b.Push(UnaryProduct(action, left))
}

// PushSummand stages a Product node as one factor of the Sum currently
// being assembled for a just-completed symbol.
func (b *Bocage) PushSummand(product NodeHandle) {
	b.pendingSummands = append(b.pendingSummands, product)
}

// Sum finalizes the staged Product nodes under one Sum header for
// (lhs, origin), returning the header's handle. It is the caller's
// responsibility to invoke Sum exactly once per completed symbol, after
// every one of its Products has been staged via PushSummand.
func (b *Bocage) Sum(lhs symbol.Symbol, origin uint32) NodeHandle {
	_ = origin // span identity lives in the recognizer's chart keying, not the node
	count := len(b.pendingSummands)
	header := b.Push(Sum(lhs, uint32(count)))
	for _, summand := range b.pendingSummands {
		n := b.Get(summand)
		b.Push(n)
	}
	b.pendingSummands = b.pendingSummands[:0]
	return header
}

// Singleton finalizes a Count-1 Sum header wrapping product, duplicating
// it adjacent to the header exactly as Sum does for its staged summands —
// but reading product directly instead of the pending-summand buffer, so
// it can be called while that buffer holds an unrelated span's summands.
func (b *Bocage) Singleton(lhs symbol.Symbol, product NodeHandle) NodeHandle {
	header := b.Push(Sum(lhs, 1))
	b.Push(b.Get(product))
	return header
}

// Leaf records (or returns the memoized handle for) an Evaluated leaf at
// (sym, earleme). The value itself is not stored in the packed graph —
// it is recovered by the caller from a TokenRetriever keyed the same way,
// keeping the packed encoding free of caller-specific payload types.
func (b *Bocage) Leaf(sym symbol.Symbol, earleme uint32) NodeHandle {
	key := leafKey{sym: sym, earleme: earleme}
	if h, ok := b.evaluatedLeaves[key]; ok {
		return h
	}
	h := b.Push(Evaluated(sym))
	b.evaluatedLeaves[key] = h
	return h
}

// Nulling returns the memoized NullingLeaf handle for sym, materializing
// it on first demand.
func (b *Bocage) Nulling(sym symbol.Symbol) NodeHandle {
	if h, ok := b.nullingLeaves[sym]; ok {
		return h
	}
	h := b.Push(NullingLeaf(sym))
	b.nullingLeaves[sym] = h
	return h
}

// Len returns the number of words currently stored.
func (b *Bocage) Len() int {
	return len(b.words)
}
