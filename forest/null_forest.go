package forest

import "github.com/npillmayer/bocage/symbol"

// NullForest discards every derivation, implementing Forest as six
// no-ops. It lets a caller run the recognizer for plain acceptance
// testing without paying for forest construction.
type NullForest struct{}

// Leaf is a no-op; it returns the null handle.
func (NullForest) Leaf(symbol.Symbol, uint32) NodeHandle {
	return NullHandle
}

// Nulling is a no-op; it returns the null handle.
func (NullForest) Nulling(symbol.Symbol) NodeHandle {
	return NullHandle
}

// Product is a no-op; it returns the null handle.
func (NullForest) Product(uint32, NodeHandle, NodeHandle, bool) NodeHandle {
	return NullHandle
}

// PushSummand is a no-op.
func (NullForest) PushSummand(NodeHandle) {}

// Sum is a no-op; it returns the null handle.
func (NullForest) Sum(symbol.Symbol, uint32) NodeHandle {
	return NullHandle
}

// Singleton is a no-op; it returns the null handle.
func (NullForest) Singleton(symbol.Symbol, NodeHandle) NodeHandle {
	return NullHandle
}
