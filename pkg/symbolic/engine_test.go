package symbolic

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/callbacks"
)

func newTestEngine(t *testing.T) (*Engine, *arch.CPU) {
	t.Helper()
	cpu := arch.NewCPU()
	require.NoError(t, cpu.SetArchitecture(arch.X8664))
	eng := NewEngine(cpu, ast.NewPool(), callbacks.New())
	eng.Init()
	return eng, cpu
}

func TestUninitialisedEngineRejectsOperations(t *testing.T) {
	cpu := arch.NewCPU()
	require.NoError(t, cpu.SetArchitecture(arch.X8664))
	eng := NewEngine(cpu, ast.NewPool(), callbacks.New())
	_, err := eng.BuildSymbolicRegister(arch.RAX)
	require.Error(t, err)
}

// TestSubRegisterWritePreservesParentBits: writing
// AL after RAX is fully bound must keep RAX's untouched bits reachable
// in the resulting AST rather than discarding them.
func TestSubRegisterWritePreservesParentBits(t *testing.T) {
	eng, _ := newTestEngine(t)

	raxConst, err := ast.NewConst(64, big.NewInt(0x1122334455667788))
	require.NoError(t, err)
	raxExpr, err := eng.CreateSymbolicRegisterExpression(raxConst, arch.RAX, ExprOptions{})
	require.NoError(t, err)
	require.Equal(t, uint32(64), raxExpr.Node.BitSize)

	alConst, err := ast.NewConst(8, big.NewInt(0xFF))
	require.NoError(t, err)
	alExpr, err := eng.CreateSymbolicRegisterExpression(alConst, arch.AL, ExprOptions{})
	require.NoError(t, err)

	require.Equal(t, uint32(64), alExpr.Node.BitSize, "register-bound expression must match the parent's width")
	require.Equal(t, ast.KindConcat, alExpr.Node.Kind)
	require.Len(t, alExpr.Node.Children, 2)

	wantHi, err := ast.NewExtract(8, 63, raxExpr.Node)
	require.NoError(t, err)
	require.True(t, alExpr.Node.Children[0].Equal(wantHi), "upper 56 bits must still reference the prior RAX value")
	require.True(t, alExpr.Node.Children[1].Equal(alConst))
}

// TestFull32BitWriteZeroExtendsInto64BitParent exercises the
// discretionary zero-extension policy for a full-width write to a
// 32-bit sub-register of a 64-bit parent (e.g. EAX into RAX).
func TestFull32BitWriteZeroExtendsInto64BitParent(t *testing.T) {
	eng, _ := newTestEngine(t)

	raxConst, _ := ast.NewConst(64, big.NewInt(0x1122334455667788))
	_, err := eng.CreateSymbolicRegisterExpression(raxConst, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	eaxConst, _ := ast.NewConst(32, big.NewInt(0xDEADBEEF))
	eaxExpr, err := eng.CreateSymbolicRegisterExpression(eaxConst, arch.EAX, ExprOptions{})
	require.NoError(t, err)

	require.Equal(t, ast.KindZeroExtend, eaxExpr.Node.Kind)
	require.Equal(t, uint32(64), eaxExpr.Node.BitSize)
	require.True(t, eaxExpr.Node.Children[0].Equal(eaxConst))
}

// TestBuildSymbolicMemoryConcatenatesBytesMSBFirst checks the
// little-endian concat shape of a multi-byte read.
func TestBuildSymbolicMemoryConcatenatesBytesMSBFirst(t *testing.T) {
	eng, cpu := newTestEngine(t)
	cpu.WriteMemory(0x1000, []byte{0x11, 0x22, 0x33, 0x44})

	node, err := eng.BuildSymbolicMemory(0x1000, 4)
	require.NoError(t, err)
	require.Equal(t, ast.KindConcat, node.Kind)
	require.Equal(t, uint32(32), node.BitSize)
	require.Len(t, node.Children, 4)

	require.Equal(t, uint64(0x44), node.Children[0].Value.Uint64())
	require.Equal(t, uint64(0x33), node.Children[1].Value.Uint64())
	require.Equal(t, uint64(0x22), node.Children[2].Value.Uint64())
	require.Equal(t, uint64(0x11), node.Children[3].Value.Uint64())
}

// TestBuildSymbolicRegisterTriggersCallbackOnMiss checks that an
// unbound register read goes through the callback chain.
func TestBuildSymbolicRegisterTriggersCallbackOnMiss(t *testing.T) {
	eng, cpu := newTestEngine(t)

	var observed []arch.RegisterID
	eng.dispatcher.AddCallback(callbacks.GetConcreteRegisterValue, callbacks.RegisterReadHandler(func(a callbacks.RegisterAccess) error {
		observed = append(observed, a.Reg)
		return cpu.SetConcreteRegisterValue(a.Reg, 0x42)
	}))

	node, err := eng.BuildSymbolicRegister(arch.RCX)
	require.NoError(t, err)
	require.Equal(t, []arch.RegisterID{arch.RCX}, observed)
	require.Equal(t, ast.KindConst, node.Kind)
	require.Equal(t, uint64(0x42), node.Value.Uint64())
}

// TestPathConstraintsAccumulateAndConjoin checks constraint
// accumulation, conjunction and clearing.
func TestPathConstraintsAccumulateAndConjoin(t *testing.T) {
	eng, _ := newTestEngine(t)

	zf, _ := ast.NewVariable(1, 1, "zf")
	notZf, _ := ast.NewLogical(ast.KindLNot, zf)
	require.NoError(t, eng.AddPathConstraint(0x400000, zf, notZf))
	require.Len(t, eng.GetPathConstraints(), 1)

	cf, _ := ast.NewVariable(1, 2, "cf")
	notCf, _ := ast.NewLogical(ast.KindLNot, cf)
	require.NoError(t, eng.AddPathConstraint(0x400010, cf, notCf))

	conj, err := eng.GetPathConstraintsAst()
	require.NoError(t, err)
	require.Equal(t, ast.KindLAnd, conj.Kind)
	require.Equal(t, uint32(1), conj.BitSize)

	eng.ClearPathConstraints()
	require.Empty(t, eng.GetPathConstraints())

	empty, err := eng.GetPathConstraintsAst()
	require.NoError(t, err)
	require.Equal(t, ast.KindConst, empty.Kind)
	require.Equal(t, uint64(1), empty.Value.Uint64())
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	eng, _ := newTestEngine(t)

	c1, _ := ast.NewConst(64, big.NewInt(1))
	_, err := eng.CreateSymbolicRegisterExpression(c1, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	require.NoError(t, eng.BackupSymbolicEngine())
	require.True(t, eng.HasBackup())

	c2, _ := ast.NewConst(64, big.NewInt(2))
	_, err = eng.CreateSymbolicRegisterExpression(c2, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	id, ok := eng.GetRegisterExpressionID(arch.RAX)
	require.True(t, ok)
	after, err := eng.GetExpression(id)
	require.NoError(t, err)
	require.True(t, after.Node.Equal(c2))

	require.NoError(t, eng.RestoreSymbolicEngine())
	id, ok = eng.GetRegisterExpressionID(arch.RAX)
	require.True(t, ok)
	restored, err := eng.GetExpression(id)
	require.NoError(t, err)
	require.True(t, restored.Node.Equal(c1))
}

func TestConvertRegisterToSymbolicVariableRebindsInPlace(t *testing.T) {
	eng, _ := newTestEngine(t)
	c1, _ := ast.NewConst(64, big.NewInt(99))
	_, err := eng.CreateSymbolicRegisterExpression(c1, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	v, err := eng.ConvertRegisterToSymbolicVariable(arch.RAX)
	require.NoError(t, err)
	require.NotNil(t, v.Origin)
	require.True(t, v.Origin.IsRegister)
	require.Equal(t, arch.RAX, v.Origin.Register)

	id, ok := eng.GetRegisterExpressionID(arch.RAX)
	require.True(t, ok)
	expr, err := eng.GetExpression(id)
	require.NoError(t, err)
	require.Equal(t, ast.KindVariable, expr.Node.Kind)
	require.Equal(t, v.Name, expr.Node.VarName)
}

func TestCreateSymbolicMemoryExpressionBindsByteWidthExpressions(t *testing.T) {
	eng, _ := newTestEngine(t)

	val, _ := ast.NewConst(32, big.NewInt(0xAABBCCDD))
	_, err := eng.CreateSymbolicMemoryExpression(val, 0x2000, 4, ExprOptions{})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		id, ok := eng.GetMemoryExpressionID(0x2000 + uint64(i))
		require.True(t, ok)
		expr, err := eng.GetExpression(id)
		require.NoError(t, err)
		require.Equal(t, uint32(8), expr.Node.BitSize, "every memory-bound expression must be exactly one byte wide")
		require.Equal(t, Memory, expr.Origin)
	}
}

func TestGetFullAstFromIDIsStableAcrossCalls(t *testing.T) {
	eng, _ := newTestEngine(t)

	c, _ := ast.NewConst(64, big.NewInt(7))
	expr, err := eng.CreateSymbolicRegisterExpression(c, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	first, err := eng.GetFullAstFromID(expr.ID)
	require.NoError(t, err)
	second, err := eng.GetFullAstFromID(expr.ID)
	require.NoError(t, err)
	require.True(t, first.Equal(second))

	_, err = eng.GetFullAstFromID(9999)
	require.Error(t, err)
}

func TestGetSymbolicRegisterValueFoldsGroundBinding(t *testing.T) {
	eng, _ := newTestEngine(t)

	raxConst, _ := ast.NewConst(64, new(big.Int).SetUint64(0xAAAABBBBCCCCDDDD))
	_, err := eng.CreateSymbolicRegisterExpression(raxConst, arch.RAX, ExprOptions{})
	require.NoError(t, err)

	eaxConst, _ := ast.NewConst(32, big.NewInt(0x11112222))
	_, err = eng.CreateSymbolicRegisterExpression(eaxConst, arch.EAX, ExprOptions{})
	require.NoError(t, err)

	got, err := eng.GetSymbolicRegisterValue(arch.RAX)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0000000011112222), got, "a full-width EAX write zero-extends into RAX")
}

func TestGetSymbolicMemoryValueFoldsLittleEndian(t *testing.T) {
	eng, cpu := newTestEngine(t)
	cpu.WriteMemory(0x100, []byte{0x01, 0x02, 0x03, 0x04})

	got, err := eng.GetSymbolicMemoryValue(0x100, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0x04030201), got)
}

func TestSetVariableNameAliasesRegistryEntry(t *testing.T) {
	eng, _ := newTestEngine(t)

	c, _ := ast.NewConst(64, big.NewInt(3))
	expr, err := eng.CreateSymbolicRegisterExpression(c, arch.RAX, ExprOptions{})
	require.NoError(t, err)
	v, err := eng.ConvertExpressionToSymbolicVariable(expr.ID, 64)
	require.NoError(t, err)
	oldName := v.Name

	require.NoError(t, eng.SetVariableName(v.ID, "user_input"))
	require.Equal(t, "user_input", v.Name)

	node, ok := eng.pool.GetAstVariableNode("user_input")
	require.True(t, ok)
	require.Equal(t, oldName, node.VarName, "the interned node keeps its canonical identifier")

	require.Error(t, eng.SetVariableName(v.ID, ""))
	require.Error(t, eng.SetVariableName(424242, "nope"))
}

func TestSetCommentsOnVariableAndExpression(t *testing.T) {
	eng, _ := newTestEngine(t)

	c, _ := ast.NewConst(64, big.NewInt(3))
	expr, err := eng.CreateSymbolicRegisterExpression(c, arch.RAX, ExprOptions{})
	require.NoError(t, err)
	v, err := eng.ConvertExpressionToSymbolicVariable(expr.ID, 64)
	require.NoError(t, err)

	require.NoError(t, eng.SetExpressionComment(expr.ID, "rax at entry"))
	require.Equal(t, "rax at entry", expr.Comment)
	require.NoError(t, eng.SetVariableComment(v.ID, "attacker controlled"))
	require.Equal(t, "attacker controlled", v.Comment)
}
