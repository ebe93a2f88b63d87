package forest

import (
	"testing"

	"github.com/npillmayer/bocage/symbol"
)

const (
	symA symbol.Symbol = iota + 1
	symB
	symSum
)

// TestSumNodeIsFollowedByExactlyCountProducts checks the invariant
// documented on Node: a Sum node's Count Products immediately follow its
// header in storage, and nothing else does until the next independent
// write.
func TestSumNodeIsFollowedByExactlyCountProducts(t *testing.T) {
	b := NewBocage(64)
	leaf := b.Leaf(symA, 0)

	p1 := b.Product(1, leaf, NullHandle, false)
	p2 := b.Product(2, leaf, NullHandle, false)
	p3 := b.Product(3, leaf, NullHandle, false)
	b.PushSummand(p1)
	b.PushSummand(p2)
	b.PushSummand(p3)
	root := b.Sum(symSum, 0)

	it := b.IterFrom(root)
	header, ok := it.Next()
	if !ok || header.Kind != KindSum {
		t.Fatalf("expected a Sum header at root")
	}
	if header.Count != 3 {
		t.Fatalf("expected Count == 3, got %d", header.Count)
	}

	var actions []uint32
	for i := uint32(0); i < header.Count; i++ {
		n, ok := it.Next()
		if !ok {
			t.Fatalf("expected Product #%d to follow the Sum header", i)
		}
		if n.Kind != KindProduct {
			t.Fatalf("expected node #%d following the Sum header to be a Product, got kind %v", i, n.Kind)
		}
		actions = append(actions, n.Action)
	}
	if len(actions) != 3 || actions[0] != 1 || actions[1] != 2 || actions[2] != 3 {
		t.Errorf("expected the 3 staged Products in push order, got %v", actions)
	}
}

// TestNodePushGetRoundTrip pushes one node of every Kind (exercising both
// the small and wide tag families the classify/encode/decode machinery
// picks between) and checks Get reproduces it exactly.
func TestNodePushGetRoundTrip(t *testing.T) {
	b := NewBocage(64)

	leaf := b.Push(Evaluated(symA))
	if got := b.Get(leaf); got.Kind != KindEvaluated || got.Symbol != symA {
		t.Errorf("Evaluated leaf round trip: got %+v", got)
	}

	nulling := b.Push(NullingLeaf(symB))
	if got := b.Get(nulling); got.Kind != KindNullingLeaf || got.Symbol != symB {
		t.Errorf("NullingLeaf round trip: got %+v", got)
	}

	unary := b.Push(UnaryProduct(7, leaf))
	if got := b.Get(unary); got.Kind != KindProduct || got.Action != 7 || got.LeftFactor != leaf || got.HasRight {
		t.Errorf("UnaryProduct round trip: got %+v", got)
	}

	binary := b.Push(BinaryProduct(9, leaf, nulling))
	if got := b.Get(binary); got.Kind != KindProduct || got.Action != 9 ||
		got.LeftFactor != leaf || got.RightFactor != nulling || !got.HasRight {
		t.Errorf("BinaryProduct round trip: got %+v", got)
	}

	sum := b.Push(Sum(symSum, 5))
	if got := b.Get(sum); got.Kind != KindSum || got.Nonterminal != symSum || got.Count != 5 {
		t.Errorf("Sum round trip: got %+v", got)
	}

	// Force the wide Sum/Product encodings by exceeding the small
	// family's field widths, to exercise TagSum/TagProduct too.
	wideSum := b.Push(Sum(symbol.Symbol(1<<20), 1<<10))
	if got := b.Get(wideSum); got.Kind != KindSum || got.Nonterminal != symbol.Symbol(1<<20) || got.Count != 1<<10 {
		t.Errorf("wide Sum round trip: got %+v", got)
	}

	wideLeaf := b.Push(Evaluated(symA))
	farAction := uint32(1 << 20)
	wideProduct := b.Push(BinaryProduct(farAction, wideLeaf, leaf))
	if got := b.Get(wideProduct); got.Kind != KindProduct || got.Action != farAction ||
		got.LeftFactor != wideLeaf || got.RightFactor != leaf || !got.HasRight {
		t.Errorf("wide Product round trip: got %+v", got)
	}
}

// TestProductFactorsAreStrictlyEarlierThanTheProduct checks that every
// factor handle a Product records points strictly before the Product's
// own position: factors must already exist in storage before the rule
// application that combines them can be pushed.
func TestProductFactorsAreStrictlyEarlierThanTheProduct(t *testing.T) {
	b := NewBocage(64)
	left := b.Leaf(symA, 0)
	right := b.Leaf(symB, 1)
	product := b.Product(1, left, right, true)

	if !(uint32(left) < uint32(product)) {
		t.Errorf("expected left factor %d to precede the Product at %d", left, product)
	}
	if !(uint32(right) < uint32(product)) {
		t.Errorf("expected right factor %d to precede the Product at %d", right, product)
	}

	got := b.Get(product)
	if got.LeftFactor != left || got.RightFactor != right {
		t.Fatalf("expected the Product's recorded factors to match what was pushed, got %+v", got)
	}
	if !(uint32(got.LeftFactor) < uint32(product)) || !(uint32(got.RightFactor) < uint32(product)) {
		t.Errorf("expected both recorded factor handles to be strictly earlier than the Product, got %+v at position %d", got, product)
	}
}
