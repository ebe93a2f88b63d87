package forest

import "github.com/npillmayer/bocage/symbol"

// Forest is the small capability surface the recognizer needs from a
// parse-forest backend, satisfied by both *Bocage (which records every
// derivation) and NullForest (which discards them for plain recognition).
type Forest interface {
	// Leaf records a scanned terminal occurrence of sym ending at earleme.
	Leaf(sym symbol.Symbol, earleme uint32) NodeHandle

	// Nulling returns the (memoized) handle for an ε-derived symbol.
	Nulling(sym symbol.Symbol) NodeHandle

	// Product builds (or, for Bocage, appends) a Product node for one
	// rule factorization. hasRight is false for a unary rule, in which
	// case right is ignored.
	Product(action uint32, left, right NodeHandle, hasRight bool) NodeHandle

	// PushSummand stages one Product factor of the Sum being assembled
	// for the symbol currently being completed.
	PushSummand(product NodeHandle)

	// Sum finalizes the staged summands for (lhs, origin) into one Sum
	// node, returning its handle.
	Sum(lhs symbol.Symbol, origin uint32) NodeHandle

	// Singleton wraps one already-built Product in a Count-1 Sum header
	// for lhs, without touching the pending-summand staging buffer. It is
	// used outside the normal per-span discovery pipeline, to rebuild the
	// nested derivation a chain of binarization gensyms stands for.
	Singleton(lhs symbol.Symbol, product NodeHandle) NodeHandle
}

var (
	_ Forest = (*Bocage)(nil)
	_ Forest = (*NullForest)(nil)
)
