package forest

import "github.com/npillmayer/bocage/symbol"

// Tag identifies a packed node's word layout. The three (or, for the
// small-leaf family, four) high bits of a node's head word carry the tag;
// Nop is the single reserved all-ones pattern used as in-place padding.
type Tag uint16

const (
	tagBit         = 13
	tagMask   uint16 = 0b111 << tagBit
	smallLeafTagMask uint16 = 0b1111 << (tagBit - 1)
)

const (
	TagSmallSum        Tag = 0b000 << tagBit
	TagSmallLink       Tag = 0b001 << tagBit
	TagMediumLink      Tag = 0b010 << tagBit
	TagSmallProduct    Tag = 0b011 << tagBit
	TagSmallLeaf       Tag = 0b100 << tagBit
	TagSmallNullingLeaf Tag = 0b1001 << (tagBit - 1)
	TagLeaf            Tag = 0b101 << tagBit
	TagProduct         Tag = 0b110 << tagBit
	TagSum             Tag = 0b111 << tagBit
	TagNop             Tag = 0xFFFF
)

// Size is the number of 16-bit words a node tagged with t occupies.
func (t Tag) Size() int {
	switch t {
	case TagSmallSum, TagSmallLink, TagSmallLeaf, TagSmallNullingLeaf, TagNop:
		return 1
	case TagMediumLink, TagSmallProduct:
		return 2
	case TagLeaf, TagSum:
		return 4
	case TagProduct:
		return 6
	default:
		panic("forest: unknown tag")
	}
}

func (t Tag) mask() uint16 {
	switch t {
	case TagSmallLeaf, TagSmallNullingLeaf:
		return smallLeafTagMask
	case TagNop:
		return 0xFFFF
	default:
		return tagMask
	}
}

// tagFromWord recovers the tag carried by a head word, or false if the
// word doesn't carry a recognized tag.
func tagFromWord(word uint16) (Tag, bool) {
	if word == uint16(TagNop) {
		return TagNop, true
	}
	switch word & tagMask {
	case uint16(TagLeaf):
		return TagLeaf, true
	case uint16(TagSum):
		return TagSum, true
	case uint16(TagProduct):
		return TagProduct, true
	case uint16(TagSmallSum):
		return TagSmallSum, true
	case uint16(TagSmallLink):
		return TagSmallLink, true
	case uint16(TagMediumLink):
		return TagMediumLink, true
	case uint16(TagSmallProduct):
		return TagSmallProduct, true
	}
	switch word & smallLeafTagMask {
	case uint16(TagSmallLeaf):
		return TagSmallLeaf, true
	case uint16(TagSmallNullingLeaf):
		return TagSmallNullingLeaf, true
	}
	return 0, false
}

// Kind distinguishes the logical node variants, independent of their
// packed encoding.
type Kind uint8

const (
	KindSum Kind = iota
	KindProduct
	KindNullingLeaf
	KindEvaluated
)

// Node is the decoded, logical shape of a Bocage node: a Sum (OR) node
// enumerating derivations, a Product (AND) node enumerating one rule's
// factorization, a NullingLeaf for an ε-derived symbol, or an Evaluated
// leaf for a scanned terminal.
//
// Invariant: a Sum node is always immediately followed, in storage, by
// exactly Count Product nodes.
type Node struct {
	Kind Kind

	// Sum
	Count       uint32
	Nonterminal symbol.Symbol

	// Product
	Action       uint32
	LeftFactor   NodeHandle
	RightFactor  NodeHandle
	HasRight     bool

	// NullingLeaf / Evaluated
	Symbol symbol.Symbol
}

// Sum builds a logical Sum node.
func Sum(nonterminal symbol.Symbol, count uint32) Node {
	return Node{Kind: KindSum, Nonterminal: nonterminal, Count: count}
}

// UnaryProduct builds a logical Product node for a unary rule (no right
// factor).
func UnaryProduct(action uint32, left NodeHandle) Node {
	return Node{Kind: KindProduct, Action: action, LeftFactor: left}
}

// BinaryProduct builds a logical Product node for a binary rule.
func BinaryProduct(action uint32, left, right NodeHandle) Node {
	return Node{Kind: KindProduct, Action: action, LeftFactor: left, RightFactor: right, HasRight: true}
}

// NullingLeaf builds a logical NullingLeaf node.
func NullingLeaf(sym symbol.Symbol) Node {
	return Node{Kind: KindNullingLeaf, Symbol: sym}
}

// Evaluated builds a logical Evaluated (scanned terminal) leaf node.
func Evaluated(sym symbol.Symbol) Node {
	return Node{Kind: KindEvaluated, Symbol: sym}
}

// classify picks the smallest tag whose bit budget fits n, given the
// node's eventual storage position.
func (n Node) classify(position uint32) Tag {
	switch n.Kind {
	case KindProduct:
		if n.HasRight {
			if position >= uint32(n.RightFactor) && position >= uint32(n.LeftFactor) &&
				position-uint32(n.RightFactor) < (1<<5) &&
				position-uint32(n.LeftFactor) < (1<<8) &&
				n.Action < (1 << 16) {
				return TagSmallProduct
			}
			return TagProduct
		}
		if position >= uint32(n.LeftFactor) && position-uint32(n.LeftFactor) < (1<<5) && n.Action < (1<<8) {
			return TagSmallLink
		}
		if position >= uint32(n.LeftFactor) && position-uint32(n.LeftFactor) < (1<<(5+8)) && n.Action < (1<<16) {
			return TagMediumLink
		}
		return TagProduct
	case KindNullingLeaf:
		if uint32(n.Symbol) < (1 << (4 + 8)) {
			return TagSmallNullingLeaf
		}
		return TagLeaf
	case KindEvaluated:
		if uint32(n.Symbol) < (1 << (4 + 8)) {
			return TagSmallLeaf
		}
		return TagLeaf
	case KindSum:
		if n.Count < (1<<5) && uint32(n.Nonterminal) < (1<<8) {
			return TagSmallSum
		}
		return TagSum
	default:
		panic("forest: unknown node kind")
	}
}

// encode packs n into words, sized for storage starting at position.
// Returns the tag used and the words to write (len(words) == tag.Size()).
func (n Node) encode(position uint32) (Tag, [6]uint16) {
	tag := n.classify(position)
	var words [6]uint16
	switch tag {
	case TagSmallSum:
		words[0] = uint16(tag) | (uint16(n.Nonterminal) << 5) | uint16(n.Count)
	case TagSum:
		// Head word's top 3 bits are the tag; the remaining 13 bits carry
		// the high part of Count, capping an overflowing Count to 29 bits
		// of effective range (ample for any realistic ambiguity degree).
		words[0] = uint16(tag) | uint16((n.Count>>16)&0x1FFF)
		words[1] = uint16(n.Count)
		words[2] = uint16(n.Nonterminal >> 16)
		words[3] = uint16(n.Nonterminal)
	case TagSmallLink:
		distance := position - uint32(n.LeftFactor)
		words[0] = uint16(tag) | (uint16(n.Action) << 5) | uint16(distance)
	case TagMediumLink:
		distance := position - uint32(n.LeftFactor)
		words[0] = uint16(tag) | uint16(distance)
		words[1] = uint16(n.Action)
	case TagSmallProduct:
		leftDistance := position - uint32(n.LeftFactor)
		rightDistance := position - uint32(n.RightFactor)
		words[0] = uint16(tag) | (uint16(leftDistance) << 5) | uint16(rightDistance)
		words[1] = uint16(n.Action)
	case TagProduct:
		words[0] = uint16(tag) | uint16((n.Action>>16)&0x1FFF)
		words[1] = uint16(n.Action)
		left := uint32(n.LeftFactor)
		words[2] = uint16(left >> 16)
		words[3] = uint16(left)
		right := uint32(NullHandle)
		if n.HasRight {
			right = uint32(n.RightFactor)
		}
		words[4] = uint16(right >> 16)
		words[5] = uint16(right)
	case TagSmallNullingLeaf:
		words[0] = uint16(tag) | uint16(n.Symbol)
	case TagSmallLeaf:
		words[0] = uint16(tag) | uint16(n.Symbol)
	case TagLeaf:
		// Bit 12 (just below the tag's 3 high bits) distinguishes a
		// NullingLeaf from an Evaluated leaf at this width; both variants
		// otherwise produce an identical word pattern.
		words[0] = uint16(tag)
		if n.Kind == KindNullingLeaf {
			words[0] |= 1 << 12
		}
		words[1] = uint16(n.Symbol >> 16)
		words[2] = uint16(n.Symbol)
	default:
		panic("forest: unreachable encode tag")
	}
	return tag, words
}

// decode reconstructs a logical Node from its packed words (head word
// first, already tag-erased by the caller is NOT assumed — decode erases
// the tag itself) together with the tag and the node's storage position.
func decode(tag Tag, words []uint16, position uint32) Node {
	switch tag {
	case TagSmallSum:
		head := words[0] &^ tag.mask()
		nonterminal := head >> 5
		count := head & 0x1F
		return Sum(symbol.Symbol(nonterminal), uint32(count))
	case TagSum:
		countHigh := uint32(words[0]&^tag.mask()) << 16
		count := countHigh | uint32(words[1])
		nonterminal := uint32(words[2])<<16 | uint32(words[3])
		return Sum(symbol.Symbol(nonterminal), count)
	case TagSmallLink:
		head := words[0] &^ tag.mask()
		action := head >> 5
		distance := head & 0x1F
		return UnaryProduct(uint32(action), NodeHandle(position-uint32(distance)))
	case TagMediumLink:
		distance := uint32(words[0] &^ tag.mask())
		action := uint32(words[1])
		return UnaryProduct(action, NodeHandle(position-distance))
	case TagSmallProduct:
		head := words[0] &^ tag.mask()
		leftDistance := uint32(head >> 5)
		rightDistance := uint32(head & 0x1F)
		action := uint32(words[1])
		return BinaryProduct(action, NodeHandle(position-leftDistance), NodeHandle(position-rightDistance))
	case TagProduct:
		actionHigh := uint32(words[0]&^tag.mask()) << 16
		action := actionHigh | uint32(words[1])
		left := uint32(words[2])<<16 | uint32(words[3])
		right := uint32(words[4])<<16 | uint32(words[5])
		n := Node{Kind: KindProduct, Action: action, LeftFactor: NodeHandle(left)}
		if rh, ok := NodeHandle(right).ToOption(); ok {
			n.RightFactor = rh
			n.HasRight = true
		}
		return n
	case TagSmallNullingLeaf:
		sym := words[0] &^ tag.mask()
		return NullingLeaf(symbol.Symbol(sym))
	case TagSmallLeaf:
		sym := words[0] &^ tag.mask()
		return Evaluated(symbol.Symbol(sym))
	case TagLeaf:
		sym := uint32(words[1])<<16 | uint32(words[2])
		if words[0]&(1<<12) != 0 {
			return NullingLeaf(symbol.Symbol(sym))
		}
		return Evaluated(symbol.Symbol(sym))
	default:
		panic("forest: unreachable decode tag")
	}
}
