package ast

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConstRejectsBadBitSize(t *testing.T) {
	_, err := NewConst(0, big.NewInt(1))
	require.Error(t, err)

	_, err = NewConst(513, big.NewInt(1))
	require.Error(t, err)
}

func TestNewBinaryRejectsMismatchedWidth(t *testing.T) {
	a, err := NewConst(32, big.NewInt(1))
	require.NoError(t, err)
	b, err := NewConst(64, big.NewInt(1))
	require.NoError(t, err)

	_, err = NewBinary(KindBvAdd, a, b)
	require.Error(t, err)
}

func TestNewExtractRejectsOutOfRange(t *testing.T) {
	a, err := NewConst(32, big.NewInt(0))
	require.NoError(t, err)

	_, err = NewExtract(0, 32, a) // high == bitSize is out of range
	require.Error(t, err)

	n, err := NewExtract(0, 7, a)
	require.NoError(t, err)
	require.EqualValues(t, 8, n.BitSize)
}

func TestNodeEqualIgnoresPointerIdentity(t *testing.T) {
	a1, _ := NewConst(32, big.NewInt(7))
	a2, _ := NewConst(32, big.NewInt(7))
	require.NotSame(t, a1, a2)
	require.True(t, a1.Equal(a2))

	b, _ := NewConst(32, big.NewInt(8))
	require.False(t, a1.Equal(b))
}

func TestExtractUniqueAstNodesVisitsOnce(t *testing.T) {
	a, _ := NewConst(32, big.NewInt(1))
	add, err := NewBinary(KindBvAdd, a, a)
	require.NoError(t, err)

	nodes := ExtractUniqueAstNodes(add)
	require.Len(t, nodes, 2) // a once, add once, despite being used twice
}
