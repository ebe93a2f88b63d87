package forest

import "github.com/npillmayer/bocage/symbol"

// NodeHandle is an opaque position into a Bocage's packed node storage.
type NodeHandle uint32

// NullHandle is the sentinel "no handle" value, reserved so a real
// handle's usable range is [0, 2^32-2].
const NullHandle NodeHandle = 0xFFFFFFFF

// NullingHandle builds a handle carrying only a symbol identity, used as
// a lookup key before a NullingLeaf has actually been pushed.
func NullingHandle(sym symbol.Symbol) NodeHandle {
	return NodeHandle(sym)
}

// Usize returns the handle's raw position as an int, for slice indexing.
func (h NodeHandle) Usize() int {
	return int(h)
}

// ToOption reports the handle together with whether it is non-null.
func (h NodeHandle) ToOption() (NodeHandle, bool) {
	if h == NullHandle {
		return 0, false
	}
	return h, true
}

// IsNull reports whether h is the null sentinel.
func (h NodeHandle) IsNull() bool {
	return h == NullHandle
}
