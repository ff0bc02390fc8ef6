package dynfunc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/typeshape"
)

func TestDescribe0(t *testing.T) {
	reg := typeshape.NewRegistry()
	d := dynfunc.Describe0(reg, "fn_new_random", func() (int, error) { return 7, nil })
	require.Equal(t, 0, d.Shape.Arity())

	cell, fe := d.Call(nil)
	require.Nil(t, fe)
	v, ok := dynfunc.Downcast[int](cell)
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestDescribe2ArityMismatch(t *testing.T) {
	reg := typeshape.NewRegistry()
	d := dynfunc.Describe2(reg, "fn_add", func(a, b int) (int, error) { return a + b, nil })

	_, fe := d.Call([]dynfunc.Cell{dynfunc.NewCell(reg, 1)})
	require.NotNil(t, fe)
	require.Equal(t, ferr.FnImpl, fe.Variant)
	require.Contains(t, fe.Error(), "Missing argument #2 while calling fn_add")
}

func TestDescribe2TypeMismatch(t *testing.T) {
	reg := typeshape.NewRegistry()
	d := dynfunc.Describe2(reg, "fn_add", func(a, b int) (int, error) { return a + b, nil })

	_, fe := d.Call([]dynfunc.Cell{dynfunc.NewCell(reg, 1), dynfunc.NewCell(reg, "nope")})
	require.NotNil(t, fe)
	require.Equal(t, ferr.FnMalformed, fe.Variant)
}

func TestDescribeHostFnErrorKeepsVariant(t *testing.T) {
	reg := typeshape.NewRegistry()
	d := dynfunc.Describe0(reg, "fn_fail", func() (int, error) {
		return 0, ferr.NewFnError(ferr.FnCrypto, "bad key")
	})
	_, fe := d.Call(nil)
	require.NotNil(t, fe)
	require.Equal(t, ferr.FnCrypto, fe.Variant)
}

func TestDescribeReturnShapeMatchesDeclared(t *testing.T) {
	reg := typeshape.NewRegistry()
	d := dynfunc.Describe1(reg, "fn_double", func(a int) (int, error) { return a * 2, nil })
	cell, fe := d.Call([]dynfunc.Cell{dynfunc.NewCell(reg, 3)})
	require.Nil(t, fe)
	require.Equal(t, d.Shape.ReturnType, cell.Shape())
}
