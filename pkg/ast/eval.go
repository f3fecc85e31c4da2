package ast

import (
	"math/big"

	"github.com/joshuapare/symbex/pkg/types"
)

// mask returns a mask covering the low `bits` bits (bits in [1,512]).
func mask(bits uint32) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// EvaluateGround folds a variable-free node to its concrete value,
// wrapping to node.BitSize at every step. It is the shared arithmetic
// behind Solver.Evaluate: a ground term never needs an external
// decision procedure, only these bit-vector identities.
func EvaluateGround(node *Node) (uint64, error) {
	v, err := evalBig(node)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func evalBig(n *Node) (*big.Int, error) {
	if n == nil {
		return nil, types.New(types.ErrKindAstNotFound, "cannot evaluate a nil node")
	}
	switch n.Kind {
	case KindConst:
		return new(big.Int).And(n.Value, mask(n.BitSize)), nil
	case KindVariable:
		return nil, types.New(types.ErrKindSolverFailure, "cannot evaluate a node with a free variable: "+n.VarName)
	case KindExtract:
		child, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		shifted := new(big.Int).Rsh(child, uint(n.ExtractLow))
		return shifted.And(shifted, mask(n.BitSize)), nil
	case KindConcat:
		acc := new(big.Int)
		shift := uint(0)
		for i := len(n.Children) - 1; i >= 0; i-- {
			v, err := evalBig(n.Children[i])
			if err != nil {
				return nil, err
			}
			acc.Or(acc, new(big.Int).Lsh(v, shift))
			shift += uint(n.Children[i].BitSize)
		}
		return acc, nil
	case KindBvAdd, KindBvSub, KindBvMul, KindBvAnd, KindBvOr, KindBvXor,
		KindBvShl, KindBvLshr, KindBvAshr, KindEqual, KindDistinct, KindBvUlt, KindBvSlt:
		lhs, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := evalBig(n.Children[1])
		if err != nil {
			return nil, err
		}
		return evalBinary(n, lhs, rhs)
	case KindBvNot:
		child, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		return new(big.Int).Xor(child, mask(n.BitSize)), nil
	case KindBvNeg:
		child, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		neg := new(big.Int).Sub(mask(n.BitSize), child)
		neg.Add(neg, big.NewInt(1))
		return neg.And(neg, mask(n.BitSize)), nil
	case KindZeroExtend:
		child, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		return child, nil
	case KindSignExtend:
		child, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		srcBits := n.Children[0].BitSize
		if child.Bit(int(srcBits)-1) == 1 {
			ext := new(big.Int).Sub(mask(n.BitSize), mask(srcBits))
			child = new(big.Int).Or(child, ext)
		}
		return child, nil
	case KindIte:
		cond, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		if cond.Sign() != 0 {
			return evalBig(n.Children[1])
		}
		return evalBig(n.Children[2])
	case KindLAnd, KindLOr, KindLNot:
		return evalLogical(n)
	default:
		return nil, types.New(types.ErrKindSolverFailure, "unsupported node kind for ground evaluation: "+n.Kind.String())
	}
}

func evalBinary(n *Node, lhs, rhs *big.Int) (*big.Int, error) {
	width := n.Children[0].BitSize
	var result *big.Int
	switch n.Kind {
	case KindBvAdd:
		result = new(big.Int).Add(lhs, rhs)
	case KindBvSub:
		result = new(big.Int).Sub(lhs, rhs)
	case KindBvMul:
		result = new(big.Int).Mul(lhs, rhs)
	case KindBvAnd:
		result = new(big.Int).And(lhs, rhs)
	case KindBvOr:
		result = new(big.Int).Or(lhs, rhs)
	case KindBvXor:
		result = new(big.Int).Xor(lhs, rhs)
	case KindBvShl:
		result = new(big.Int).Lsh(lhs, uint(rhs.Uint64()))
	case KindBvLshr:
		result = new(big.Int).Rsh(lhs, uint(rhs.Uint64()))
	case KindBvAshr:
		result = arithmeticShiftRight(lhs, rhs, width)
	case KindEqual:
		return boolResult(lhs.Cmp(rhs) == 0), nil
	case KindDistinct:
		return boolResult(lhs.Cmp(rhs) != 0), nil
	case KindBvUlt:
		return boolResult(lhs.Cmp(rhs) < 0), nil
	case KindBvSlt:
		return boolResult(signed(lhs, width).Cmp(signed(rhs, width)) < 0), nil
	default:
		return nil, types.New(types.ErrKindSolverFailure, "unsupported binary kind")
	}
	return result.And(result, mask(n.BitSize)), nil
}

func arithmeticShiftRight(v, shiftAmt *big.Int, width uint32) *big.Int {
	sv := signed(v, width)
	shifted := new(big.Int).Rsh(sv, uint(shiftAmt.Uint64()))
	if shifted.Sign() < 0 {
		shifted.Add(shifted, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return shifted
}

func signed(v *big.Int, width uint32) *big.Int {
	if v.Bit(int(width)-1) == 0 {
		return new(big.Int).Set(v)
	}
	return new(big.Int).Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
}

func boolResult(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func evalLogical(n *Node) (*big.Int, error) {
	switch n.Kind {
	case KindLNot:
		v, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		return boolResult(v.Sign() == 0), nil
	case KindLAnd:
		lhs, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := evalBig(n.Children[1])
		if err != nil {
			return nil, err
		}
		return boolResult(lhs.Sign() != 0 && rhs.Sign() != 0), nil
	case KindLOr:
		lhs, err := evalBig(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := evalBig(n.Children[1])
		if err != nil {
			return nil, err
		}
		return boolResult(lhs.Sign() != 0 || rhs.Sign() != 0), nil
	default:
		return nil, types.New(types.ErrKindSolverFailure, "unsupported logical kind")
	}
}
