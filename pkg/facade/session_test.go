package facade

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/callbacks"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New(Options{Arch: arch.X8664})
	s.Init()
	return s
}

func TestProcessingUnknownMnemonicReportsFalse(t *testing.T) {
	s := newTestSession(t)
	ok, err := s.Processing(&Instruction{Address: 0x1000, Mnemonic: "nop"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcessingMovLiftsImmediateIntoRegister(t *testing.T) {
	s := newTestSession(t)
	inst := &Instruction{
		Address:  0x1000,
		Mnemonic: "mov",
		Operands: []Operand{
			Reg(arch.EAX, AccessWrite),
			Imm(0x2a, 32),
		},
	}
	ok, err := s.Processing(inst)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, inst.Symbolic, 1)

	id, ok := s.sym.GetRegisterExpressionID(arch.RAX)
	require.True(t, ok)
	expr, err := s.sym.GetExpression(id)
	require.NoError(t, err)
	require.Equal(t, ast.KindZeroExtend, expr.Node.Kind, "32-bit write into a 64-bit parent zero-extends")
}

// TestProcessingAddPropagatesUnionTaint exercises liftBinaryArith's
// taint union: tainting the source register must taint the
// destination after `add dst, src`.
func TestProcessingAddPropagatesUnionTaint(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.tnt.TaintRegister(arch.EBX))

	inst := &Instruction{
		Address:  0x1000,
		Mnemonic: "add",
		Operands: []Operand{
			Reg(arch.EAX, AccessReadWrite),
			Reg(arch.EBX, AccessRead),
		},
	}
	ok, err := s.Processing(inst)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.tnt.IsRegisterTainted(arch.EAX))
}

// TestProcessingCmpJzRecordsPathConstraint: a cmp
// followed by jz must append exactly one path constraint whose taken
// predicate is the equality test.
func TestProcessingCmpJzRecordsPathConstraint(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetConcreteRegisterValue(arch.EAX, 5))

	cmp := &Instruction{
		Address:  0x1000,
		Mnemonic: "cmp",
		Operands: []Operand{
			Reg(arch.EAX, AccessRead),
			Imm(5, 32),
		},
	}
	ok, err := s.Processing(cmp)
	require.NoError(t, err)
	require.True(t, ok)

	jz := &Instruction{Address: 0x1003, Mnemonic: "jz", Branch: true}
	ok, err = s.Processing(jz)
	require.NoError(t, err)
	require.True(t, ok)

	pcs := s.sym.GetPathConstraints()
	require.Len(t, pcs, 1)
	require.Equal(t, ast.KindEqual, pcs[0].Taken.Kind)
}

// TestResetClearsTaintAndSymbolicState ensures Reset tears down both
// engines together, matching the façade's composed lifecycle.
func TestResetClearsTaintAndSymbolicState(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.tnt.TaintRegister(arch.EAX))
	inst := &Instruction{
		Address:  0x1000,
		Mnemonic: "mov",
		Operands: []Operand{Reg(arch.EAX, AccessWrite), Imm(1, 32)},
	}
	_, err := s.Processing(inst)
	require.NoError(t, err)

	s.Reset()
	require.False(t, s.tnt.IsRegisterTainted(arch.EAX))
	_, ok := s.sym.GetRegisterExpressionID(arch.EAX)
	require.False(t, ok)
}

// TestResetClearsLastVolatilePredicate ensures a jz processed right
// after Reset (with no intervening cmp/test) falls back to the
// "no preceding compare" default instead of reusing a stale predicate
// left over from before the reset.
func TestResetClearsLastVolatilePredicate(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetConcreteRegisterValue(arch.EAX, 5))

	cmp := &Instruction{
		Address:  0x1000,
		Mnemonic: "cmp",
		Operands: []Operand{
			Reg(arch.EAX, AccessRead),
			Imm(5, 32),
		},
	}
	ok, err := s.Processing(cmp)
	require.NoError(t, err)
	require.True(t, ok)

	s.Reset()

	jz := &Instruction{Address: 0x2000, Mnemonic: "jz", Branch: true}
	ok, err = s.Processing(jz)
	require.NoError(t, err)
	require.True(t, ok)

	pcs := s.sym.GetPathConstraints()
	require.Len(t, pcs, 1)
	require.Equal(t, ast.KindConst, pcs[0].Taken.Kind, "jz with no preceding compare after Reset must use the absent-predicate default, not a stale cmp")
}

func TestProcessingRejectsBeforeInit(t *testing.T) {
	s := New(Options{Arch: arch.X8664})
	_, err := s.Processing(&Instruction{Mnemonic: "mov"})
	require.Error(t, err)
}

// fakeDisassembler decodes any raw byte stream into `mov eax, imm32`,
// enough to observe that Processing routes through disassembly first.
type fakeDisassembler struct{ calls int }

func (d *fakeDisassembler) Disassemble(inst *Instruction) error {
	d.calls++
	inst.Mnemonic = "mov"
	inst.Operands = []Operand{Reg(arch.EAX, AccessWrite), Imm(uint64(inst.Raw[0]), 32)}
	return nil
}

func TestDisassemblyWithoutDisassemblerIsAnError(t *testing.T) {
	s := newTestSession(t)
	err := s.Disassembly(&Instruction{Raw: []byte{0x90}})
	require.Error(t, err)
}

func TestProcessingDecodesRawBytesThroughDisassembler(t *testing.T) {
	d := &fakeDisassembler{}
	s := New(Options{Arch: arch.X8664, Disassembler: d})
	s.Init()

	inst := &Instruction{Address: 0x1000, Raw: []byte{0x2a}}
	ok, err := s.Processing(inst)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, d.calls)
	require.Equal(t, "mov", inst.Mnemonic)

	got, err := s.sym.GetSymbolicRegisterValue(arch.EAX)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2a), got)
}

func TestBuildSemanticsLiftsWithoutDisassembly(t *testing.T) {
	d := &fakeDisassembler{}
	s := New(Options{Arch: arch.X8664, Disassembler: d})
	s.Init()

	inst := &Instruction{
		Address:  0x1000,
		Mnemonic: "mov",
		Operands: []Operand{Reg(arch.EAX, AccessWrite), Imm(7, 32)},
	}
	ok, err := s.BuildSemantics(inst)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, d.calls, "BuildSemantics must not re-decode an already-decoded instruction")
}

func TestProcessCallbacksRunsSimplificationChain(t *testing.T) {
	s := newTestSession(t)
	s.AddCallback(callbacks.SymbolicSimplification, callbacks.SimplificationHandler(func(payload interface{}) (interface{}, error) {
		n := payload.(*ast.Node)
		if n.Kind == ast.KindBvAdd && n.Children[1].Kind == ast.KindConst && n.Children[1].Value.Sign() == 0 {
			return n.Children[0], nil
		}
		return n, nil
	}))

	x, err := ast.NewVariable(32, 0, "x")
	require.NoError(t, err)
	zero, err := ast.NewConst(32, big.NewInt(0))
	require.NoError(t, err)
	sum, err := ast.NewBinary(ast.KindBvAdd, x, zero)
	require.NoError(t, err)

	out, err := s.ProcessCallbacks(callbacks.SymbolicSimplification, sum)
	require.NoError(t, err)
	require.True(t, out.(*ast.Node).Equal(x))
}

func TestProcessCallbacksNotifiesMemoryReadHandlers(t *testing.T) {
	s := newTestSession(t)
	var seen []uint64
	s.AddCallback(callbacks.GetConcreteMemoryValue, callbacks.MemoryReadHandler(func(a callbacks.MemoryAccess) error {
		seen = append(seen, a.Address)
		return nil
	}))

	out, err := s.ProcessCallbacks(callbacks.GetConcreteMemoryValue, callbacks.MemoryAccess{Address: 0x200, Size: 1})
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, []uint64{0x200}, seen)
}

func TestAstPoolAccessorsRoundTrip(t *testing.T) {
	s := newTestSession(t)

	x, err := ast.NewVariable(8, 0, "x")
	require.NoError(t, err)
	x = s.RecordAstNode(x)
	s.RecordVariableAstNode("x", x)

	nodes := s.GetAllocatedAstNodes()
	require.NotEmpty(t, nodes)
	vars := s.GetAstVariableNodes()
	require.Contains(t, vars, "x")

	s.FreeAllAstNodes()
	require.Empty(t, s.GetAllocatedAstNodes())

	s.SetAllocatedAstNodes(nodes)
	s.SetAstVariableNodes(vars)
	require.NotEmpty(t, s.GetAllocatedAstNodes())
	got, ok := s.GetAstVariableNode("x")
	require.True(t, ok)
	require.True(t, got.Equal(x))
}
