package ast

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintSMTZeroExtendEmitsUnderscoreFormWithDelta(t *testing.T) {
	child, err := NewConst(32, big.NewInt(1))
	require.NoError(t, err)
	n, err := NewExtend(KindZeroExtend, 64, child)
	require.NoError(t, err)

	require.Equal(t, "((_ zero_extend 32) (_ bv1 32))", printSMT(n))
}

func TestPrintSMTSignExtendEmitsUnderscoreFormWithDelta(t *testing.T) {
	child, err := NewConst(8, big.NewInt(1))
	require.NoError(t, err)
	n, err := NewExtend(KindSignExtend, 16, child)
	require.NoError(t, err)

	require.Equal(t, "((_ sign_extend 8) (_ bv1 8))", printSMT(n))
}

func TestZeroExtendRoundTripsThroughParseSMT(t *testing.T) {
	p := NewPool()
	child, err := NewConst(32, big.NewInt(5))
	require.NoError(t, err)
	n, err := NewExtend(KindZeroExtend, 64, child)
	require.NoError(t, err)

	text := printSMT(n)
	parsed, err := p.ParseSMT(text)
	require.NoError(t, err)
	require.True(t, n.Equal(parsed))
	require.EqualValues(t, 64, parsed.BitSize)
}

func TestSignExtendRoundTripsThroughParseSMT(t *testing.T) {
	p := NewPool()
	child, err := NewConst(8, big.NewInt(0xFF))
	require.NoError(t, err)
	n, err := NewExtend(KindSignExtend, 32, child)
	require.NoError(t, err)

	text := printSMT(n)
	parsed, err := p.ParseSMT(text)
	require.NoError(t, err)
	require.True(t, n.Equal(parsed))
	require.EqualValues(t, 32, parsed.BitSize)
}

func TestExtractRoundTripsThroughParseSMT(t *testing.T) {
	p := NewPool()
	child, err := NewConst(32, big.NewInt(0x1234))
	require.NoError(t, err)
	n, err := NewExtract(0, 7, child)
	require.NoError(t, err)

	text := printSMT(n)
	parsed, err := p.ParseSMT(text)
	require.NoError(t, err)
	require.True(t, n.Equal(parsed))
}

func TestBvAddRoundTripsThroughParseSMT(t *testing.T) {
	p := NewPool()
	a, err := NewConst(32, big.NewInt(1))
	require.NoError(t, err)
	b, err := NewConst(32, big.NewInt(2))
	require.NoError(t, err)
	n, err := NewBinary(KindBvAdd, a, b)
	require.NoError(t, err)

	text := printSMT(n)
	parsed, err := p.ParseSMT(text)
	require.NoError(t, err)
	require.True(t, n.Equal(parsed))
}
