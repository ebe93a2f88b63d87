// Package forest implements the Bocage: a tag-packed, append-only shared
// packed parse forest (SPPF).
//
// Every node is encoded into one of nine word layouts, chosen by the
// smallest tag whose bit budget fits the node being written:
//
//	Tag                Words  Encodes
//	SmallSum            1     nonterminal ≤ 255, count < 32
//	SmallLink           1     unary Product, distance < 32, action < 256
//	MediumLink          2     unary Product, distance < 2^13, action ≤ 65535
//	SmallProduct        2     binary Product, both distances small
//	Product             6     full 32-bit action + two NodeHandles
//	SmallLeaf           1     Evaluated leaf, symbol < 2^12
//	SmallNullingLeaf    1     NullingLeaf, symbol < 2^12
//	Leaf                4     full-width Evaluated or NullingLeaf
//	Sum                 4     full-width Sum
//	Nop                 1     padding left by an in-place rewrite
//
// A Sum node is always immediately followed, in storage, by exactly
// Count Product nodes; every factor handle inside a Product refers to a
// strictly earlier position. These two invariants are what let a
// traverser walk the graph without auxiliary bookkeeping.
package forest
