package ast

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAstNodeIdempotentUnderDictionary(t *testing.T) {
	p := NewPool()
	p.SetDictionaryEnabled(true)

	a1, _ := NewConst(32, big.NewInt(42))
	r1 := p.RecordAstNode(a1)

	a2, _ := NewConst(32, big.NewInt(42)) // structurally identical, different pointer
	r2 := p.RecordAstNode(a2)

	require.Same(t, r1, r2, "structurally equal nodes must share a representative")
	require.Same(t, r1, p.RecordAstNode(r1), "record(record(n)) == record(n)")
}

func TestRecordAstNodeKeepsDistinctPointersWhenDictionaryDisabled(t *testing.T) {
	p := NewPool()
	p.SetDictionaryEnabled(false)

	a1, _ := NewConst(32, big.NewInt(42))
	a2, _ := NewConst(32, big.NewInt(42))

	r1 := p.RecordAstNode(a1)
	r2 := p.RecordAstNode(a2)
	require.NotSame(t, r1, r2)
}

func TestFreeAstNodesSeversDictionaryEntry(t *testing.T) {
	p := NewPool()
	a, _ := NewConst(32, big.NewInt(5))
	rec := p.RecordAstNode(a)
	require.Contains(t, p.GetAllocatedAstNodes(), rec)

	p.FreeAstNodes([]*Node{rec})
	require.NotContains(t, p.GetAllocatedAstNodes(), rec)

	// Re-recording after free should not return the stale pointer's bucket.
	b, _ := NewConst(32, big.NewInt(5))
	rec2 := p.RecordAstNode(b)
	require.Same(t, b, rec2)
}

func TestVariableRegistryRebindOverwrites(t *testing.T) {
	p := NewPool()
	v1, _ := NewVariable(32, 1, "v1")
	v2, _ := NewVariable(32, 2, "v1")

	p.RecordVariableAstNode("v1", v1)
	got, ok := p.GetAstVariableNode("v1")
	require.True(t, ok)
	require.Same(t, v1, got)

	p.RecordVariableAstNode("v1", v2)
	got, ok = p.GetAstVariableNode("v1")
	require.True(t, ok)
	require.Same(t, v2, got)
}

func TestSetAllocatedAstNodesRebuildsDictionary(t *testing.T) {
	p := NewPool()
	a, _ := NewConst(8, big.NewInt(1))
	rec := p.RecordAstNode(a)

	snapshot := p.GetAllocatedAstNodes()

	other, _ := NewConst(8, big.NewInt(2))
	p.RecordAstNode(other)
	require.Len(t, p.GetAllocatedAstNodes(), 2)

	p.SetAllocatedAstNodes(snapshot)
	require.Len(t, p.GetAllocatedAstNodes(), 1)
	require.Contains(t, p.GetAllocatedAstNodes(), rec)
}
