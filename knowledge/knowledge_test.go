package knowledge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/knowledge"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/typeshape"
)

func TestFindByCounterPreservesInsertionOrder(t *testing.T) {
	reg := typeshape.NewRegistry()
	base := knowledge.NewBase()

	shape := reg.Of([]byte{})
	for i := 0; i < 5; i++ {
		base.Append(knowledge.Item{
			Agent: "agent_0",
			Value: dynfunc.NewCell(reg, []byte{byte(i)}),
		})
	}

	for n := 0; n < 5; n++ {
		cell, ok := base.Find(shape, signature.Query{Agent: "agent_0", Counter: n, HasCounter: true})
		require.True(t, ok)
		v, _ := dynfunc.Downcast[[]byte](cell)
		require.Equal(t, []byte{byte(n)}, v)
	}
}

func TestFindMissingCounterReturnsFalse(t *testing.T) {
	reg := typeshape.NewRegistry()
	base := knowledge.NewBase()
	shape := reg.Of([]byte{})
	base.Append(knowledge.Item{Agent: "agent_0", Value: dynfunc.NewCell(reg, []byte("x"))})

	_, ok := base.Find(shape, signature.Query{Agent: "agent_0", Counter: 1, HasCounter: true})
	require.False(t, ok)
}

func TestFindFiltersByAgent(t *testing.T) {
	reg := typeshape.NewRegistry()
	base := knowledge.NewBase()
	shape := reg.Of([]byte{})
	base.Append(knowledge.Item{Agent: "agent_0", Value: dynfunc.NewCell(reg, []byte("a"))})
	base.Append(knowledge.Item{Agent: "agent_1", Value: dynfunc.NewCell(reg, []byte("b"))})

	cell, ok := base.Find(shape, signature.Query{Agent: "agent_1", HasCounter: true})
	require.True(t, ok)
	v, _ := dynfunc.Downcast[[]byte](cell)
	require.Equal(t, []byte("b"), v)
}

type fakeMatcher struct {
	name string
	spec int
	ok   bool
}

func (m fakeMatcher) Matches(other any) bool { return m.ok }
func (m fakeMatcher) Specificity() int       { return m.spec }

func TestFindMatcherSpecificityTieBreaksFirstInserted(t *testing.T) {
	reg := typeshape.NewRegistry()
	base := knowledge.NewBase()
	shape := reg.Of([]byte{})

	base.Append(knowledge.Item{Agent: "agent_0", Matcher: fakeMatcher{spec: 5, ok: true}, Value: dynfunc.NewCell(reg, []byte("first"))})
	base.Append(knowledge.Item{Agent: "agent_0", Matcher: fakeMatcher{spec: 5, ok: true}, Value: dynfunc.NewCell(reg, []byte("second"))})

	cell, ok := base.Find(shape, signature.Query{Agent: "agent_0", Matcher: fakeMatcher{ok: true}})
	require.True(t, ok)
	v, _ := dynfunc.Downcast[[]byte](cell)
	require.Equal(t, []byte("first"), v)
}
