package termzoo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/termzoo"
)

// buildABC grounds spec.md §8 scenario 2 ("Zoo coverage"): a signature of
// {fn_a() -> A, fn_b() -> B, fn_c(A, B) -> C} must yield exactly three
// terms, one per root symbol, for any seed.
func buildABC(t *testing.T) *signature.Signature {
	t.Helper()
	sig := signature.New()

	type A struct{}
	type B struct{}
	type C struct{}

	_, err := sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_a", func() (A, error) { return A{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_b", func() (B, error) { return B{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe2(sig.Types, "fn_c", func(a A, b B) (C, error) { return C{}, nil }))
	require.NoError(t, err)
	return sig
}

func TestGenerateYieldsOneTermPerRootSymbol(t *testing.T) {
	sig := buildABC(t)
	for _, seed := range []uint64{1, 42, 1000} {
		zoo := termzoo.Generate(sig, termzoo.NewSeededRand(seed, seed))
		require.Equal(t, 3, zoo.Len(), "seed %d", seed)
	}
}

func TestGenerateIsDeterministicGivenSameSeed(t *testing.T) {
	sig := buildABC(t)
	zooA := termzoo.Generate(sig, termzoo.NewSeededRand(7, 7))
	zooB := termzoo.Generate(sig, termzoo.NewSeededRand(7, 7))

	require.Equal(t, len(zooA.Terms()), len(zooB.Terms()))
	for i := range zooA.Terms() {
		require.Equal(t, zooA.Terms()[i].String(), zooB.Terms()[i].String())
	}
}

// buildDepthChain constructs a 10-level signature fn_lvl0..fn_lvl9, each
// fn_lvlN (N>0) taking the previous level's type as its sole argument and
// fn_lvl0 being nullary, so that a term rooted at fn_lvlN requires exactly
// N levels of recursion budget to close. This pins down the exact-depth
// boundary independently of any random candidate shortcut, since every
// level has a distinct Go type and therefore exactly one producer.
func buildDepthChain(t *testing.T) *signature.Signature {
	t.Helper()
	require.Equal(t, 8, termzoo.MaxDepth, "depth chain below is sized for MaxDepth=8")

	sig := signature.New()

	type lvl0 struct{}
	type lvl1 struct{}
	type lvl2 struct{}
	type lvl3 struct{}
	type lvl4 struct{}
	type lvl5 struct{}
	type lvl6 struct{}
	type lvl7 struct{}
	type lvl8 struct{}
	type lvl9 struct{}

	_, err := sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_lvl0", func() (lvl0, error) { return lvl0{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl1", func(lvl0) (lvl1, error) { return lvl1{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl2", func(lvl1) (lvl2, error) { return lvl2{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl3", func(lvl2) (lvl3, error) { return lvl3{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl4", func(lvl3) (lvl4, error) { return lvl4{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl5", func(lvl4) (lvl5, error) { return lvl5{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl6", func(lvl5) (lvl6, error) { return lvl6{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl7", func(lvl6) (lvl7, error) { return lvl7{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl8", func(lvl7) (lvl8, error) { return lvl8{}, nil }))
	require.NoError(t, err)
	_, err = sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_lvl9", func(lvl8) (lvl9, error) { return lvl9{}, nil }))
	require.NoError(t, err)

	return sig
}

// TestGenerateSucceedsAtExactMaxDepthBoundary grounds spec.md:196: a root
// whose closure requires exactly MAX_DEPTH levels of recursion (fn_lvl8,
// bottoming out at the nullary fn_lvl0 eight applications down) must
// still be produced.
func TestGenerateSucceedsAtExactMaxDepthBoundary(t *testing.T) {
	sig := buildDepthChain(t)
	zoo := termzoo.Generate(sig, termzoo.NewSeededRand(1, 1))

	found := false
	for _, term := range zoo.Terms() {
		if term.Name() == "fn_lvl8" {
			found = true
			break
		}
	}
	require.True(t, found, "fn_lvl8 requires exactly MaxDepth levels and must still close")
}

// TestGenerateRejectsOneLevelPastMaxDepth grounds spec.md:196's other
// half: a root requiring MAX_DEPTH+1 levels (fn_lvl9) must be abandoned,
// not produced by exhausting the recursion budget early.
func TestGenerateRejectsOneLevelPastMaxDepth(t *testing.T) {
	sig := buildDepthChain(t)
	zoo := termzoo.Generate(sig, termzoo.NewSeededRand(1, 1))

	for _, term := range zoo.Terms() {
		require.NotEqual(t, "fn_lvl9", term.Name(), "fn_lvl9 needs MaxDepth+1 levels and must not close")
	}
}

func TestGenerateFailsClosedWhenNoNullaryCandidate(t *testing.T) {
	sig := signature.New()
	type Lonely struct{}
	// fn_needs_arg requires an argument type with no producer in the
	// signature at all: generation must abandon that root, not panic.
	_, err := sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_needs_arg", func(x Lonely) (int, error) {
		return 0, nil
	}))
	require.NoError(t, err)

	zoo := termzoo.Generate(sig, termzoo.NewSeededRand(1, 1))
	require.Equal(t, 0, zoo.Len())
}
