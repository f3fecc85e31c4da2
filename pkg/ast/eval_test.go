package ast

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateGroundConstAndArith(t *testing.T) {
	a, err := NewConst(8, big.NewInt(200))
	require.NoError(t, err)
	b, err := NewConst(8, big.NewInt(100))
	require.NoError(t, err)

	sum, err := NewBinary(KindBvAdd, a, b)
	require.NoError(t, err)
	v, err := EvaluateGround(sum)
	require.NoError(t, err)
	require.Equal(t, uint64(44), v, "200+100 wraps mod 256 to 44")
}

func TestEvaluateGroundMultiByteConcatIsLittleEndian(t *testing.T) {
	b0, err := NewConst(8, big.NewInt(0x01))
	require.NoError(t, err)
	b1, err := NewConst(8, big.NewInt(0x02))
	require.NoError(t, err)
	b2, err := NewConst(8, big.NewInt(0x03))
	require.NoError(t, err)
	b3, err := NewConst(8, big.NewInt(0x04))
	require.NoError(t, err)

	n, err := NewConcat(b3, b2, b1, b0)
	require.NoError(t, err)
	v, err := EvaluateGround(n)
	require.NoError(t, err)
	require.Equal(t, uint64(0x04030201), v)
}

func TestEvaluateGroundExtract(t *testing.T) {
	c, err := NewConst(16, big.NewInt(0xABCD))
	require.NoError(t, err)
	hi, err := NewExtract(8, 15, c)
	require.NoError(t, err)
	v, err := EvaluateGround(hi)
	require.NoError(t, err)
	require.Equal(t, uint64(0xAB), v)
}

func TestEvaluateGroundFreeVariableErrors(t *testing.T) {
	v, err := NewVariable(8, 0, "x")
	require.NoError(t, err)
	_, err = EvaluateGround(v)
	require.Error(t, err)
}

func TestEvaluateGroundComparisons(t *testing.T) {
	a, err := NewConst(8, big.NewInt(3))
	require.NoError(t, err)
	b, err := NewConst(8, big.NewInt(5))
	require.NoError(t, err)

	lt, err := NewComparison(KindBvUlt, a, b)
	require.NoError(t, err)
	v, err := EvaluateGround(lt)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)

	eq, err := NewComparison(KindEqual, a, b)
	require.NoError(t, err)
	v, err = EvaluateGround(eq)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)
}
