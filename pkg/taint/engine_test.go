package taint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/taint"
)

func newTestEngine(t *testing.T) *taint.Engine {
	t.Helper()
	cpu := arch.NewCPU()
	require.NoError(t, cpu.SetArchitecture(arch.X8664))
	e := taint.NewEngine(cpu)
	e.Init()
	return e
}

func TestRegisterTaintTracksParentGranularity(t *testing.T) {
	e := newTestEngine(t)
	require.False(t, e.IsRegisterTainted(arch.AL))

	require.NoError(t, e.TaintRegister(arch.AL))
	require.True(t, e.IsRegisterTainted(arch.AL), "AL itself")
	require.True(t, e.IsRegisterTainted(arch.RAX), "tainting a sub-register taints the whole parent")
	require.True(t, e.IsRegisterTainted(arch.EAX))

	require.NoError(t, e.UntaintRegister(arch.EAX))
	require.False(t, e.IsRegisterTainted(arch.AL))
}

func TestMemoryTaintIsByteGranular(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintMemory(0x1000))

	require.True(t, e.IsMemoryTainted(0x1000))
	require.False(t, e.IsMemoryTainted(0x1001))
	require.True(t, e.IsMemoryRangeTainted(0x1000, 4))
	require.False(t, e.IsMemoryRangeTainted(0x1001, 4))
}

// TestTaintUnionPropagatesAdd: an additive
// instruction (dst += src) taints dst if either operand was already
// tainted, regardless of which one.
func TestTaintUnionPropagatesAdd(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintMemory(0x2000))

	result, err := e.TaintUnion(taint.Reg(arch.RBX), taint.Mem(0x2000, 1))
	require.NoError(t, err)
	require.True(t, result)
	require.True(t, e.IsRegisterTainted(arch.RBX))
}

func TestTaintUnionOfTwoCleanOperandsStaysClean(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.TaintUnion(taint.Reg(arch.RBX), taint.Reg(arch.RCX))
	require.NoError(t, err)
	require.False(t, result)
	require.False(t, e.IsRegisterTainted(arch.RBX))
}

// TestTaintAssignmentOverwritesDestination is the mov-style
// counterpart to the union test: it assigns rather than ORs, so a
// previously tainted destination goes clean when its source is clean.
func TestTaintAssignmentOverwritesDestination(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintRegister(arch.RBX))

	result, err := e.TaintAssignment(taint.Reg(arch.RBX), taint.Reg(arch.RCX))
	require.NoError(t, err)
	require.False(t, result)
	require.False(t, e.IsRegisterTainted(arch.RBX))
}

func TestTaintAssignmentFromImmediateClearsDestination(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintRegister(arch.RAX))

	result, err := e.TaintAssignment(taint.Reg(arch.RAX), taint.Imm())
	require.NoError(t, err)
	require.False(t, result)
	require.False(t, e.IsRegisterTainted(arch.RAX))
}

func TestImmediateOperandIsNeverTainted(t *testing.T) {
	e := newTestEngine(t)
	require.False(t, e.IsTainted(taint.Imm()))
}

func TestQueryTaintedReturnsOnlyMatches(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintRegister(arch.RAX))
	require.NoError(t, e.TaintMemory(0x3000))

	result := e.QueryTainted([]taint.Operand{
		taint.Reg(arch.RAX),
		taint.Reg(arch.RCX),
		taint.Mem(0x3000, 1),
		taint.Mem(0x3001, 1),
	})
	require.Len(t, result.Tainted, 2)
}

func TestResetClearsAllTaint(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.TaintRegister(arch.RAX))
	require.NoError(t, e.TaintMemory(0x4000))

	e.Reset()
	require.False(t, e.IsRegisterTainted(arch.RAX))
	require.False(t, e.IsMemoryTainted(0x4000))
}

func TestUninitialisedEngineRejectsOperations(t *testing.T) {
	cpu := arch.NewCPU()
	require.NoError(t, cpu.SetArchitecture(arch.X8664))
	e := taint.NewEngine(cpu)
	require.Error(t, e.TaintRegister(arch.RAX))
}

func TestNamedPrimitivesMatchPolicyContracts(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.TaintRegister(arch.RBX))

	got, err := eng.TaintAssignmentRegisterRegister(arch.RCX, arch.RBX)
	require.NoError(t, err)
	require.True(t, got)
	require.True(t, eng.IsRegisterTainted(arch.RCX))

	got, err = eng.TaintAssignmentRegisterImmediate(arch.RCX)
	require.NoError(t, err)
	require.False(t, got)
	require.False(t, eng.IsRegisterTainted(arch.RCX))

	got, err = eng.TaintUnionRegisterImmediate(arch.RBX)
	require.NoError(t, err)
	require.True(t, got, "union with an immediate returns the destination's existing taint")

	mem := taint.Mem(0x3000, 2)
	got, err = eng.TaintUnionMemoryRegister(mem, arch.RBX)
	require.NoError(t, err)
	require.True(t, got)
	require.True(t, eng.IsMemoryTainted(0x3000))
	require.True(t, eng.IsMemoryTainted(0x3001))

	got, err = eng.TaintAssignmentMemoryImmediate(mem)
	require.NoError(t, err)
	require.False(t, got)
	require.False(t, eng.IsMemoryTainted(0x3000))
}

func TestSetTaintSettersForceFlag(t *testing.T) {
	eng := newTestEngine(t)

	require.NoError(t, eng.SetTaintRegister(arch.EAX, true))
	require.True(t, eng.IsRegisterTainted(arch.RAX), "taint lands on the parent register")
	require.NoError(t, eng.SetTaintRegister(arch.RAX, false))
	require.False(t, eng.IsRegisterTainted(arch.EAX))

	mem := taint.Mem(0x4000, 3)
	require.NoError(t, eng.SetTaintMemory(mem, true))
	require.True(t, eng.IsMemoryRangeTainted(0x4000, 3))
	require.NoError(t, eng.SetTaintMemory(mem, false))
	require.False(t, eng.IsMemoryRangeTainted(0x4000, 3))
}
