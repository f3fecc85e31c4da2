package ast

import (
	"fmt"
	"io"
)

// RepresentationMode selects the textual formatter printAstRepresentation
// dispatches to. Full pretty-printing is out of scope for this core; the
// formatters below exist to exercise the mode selector and to give the
// external-simplifier round trip (see simplify.go) something to parse.
type RepresentationMode int

const (
	ModeSMT RepresentationMode = iota
	ModePython
)

func (m RepresentationMode) String() string {
	if m == ModePython {
		return "python"
	}
	return "smt"
}

// SetAstRepresentationMode selects the active formatter.
func (p *Pool) SetAstRepresentationMode(mode RepresentationMode) { p.mode = mode }

// GetAstRepresentationMode returns the active formatter.
func (p *Pool) GetAstRepresentationMode() RepresentationMode { return p.mode }

// PrintAstRepresentation writes node to w using the pool's active mode.
func (p *Pool) PrintAstRepresentation(w io.Writer, node *Node) error {
	switch p.mode {
	case ModePython:
		_, err := io.WriteString(w, printPython(node))
		return err
	default:
		_, err := io.WriteString(w, printSMT(node))
		return err
	}
}

// printSMT renders node as an SMT-LIB2 s-expression. This is the
// canonical form the external simplifier round-trips through.
func printSMT(n *Node) string {
	if n == nil {
		return "()"
	}
	switch n.Kind {
	case KindConst:
		return fmt.Sprintf("(_ bv%s %d)", n.Value.String(), n.BitSize)
	case KindVariable:
		return n.VarName
	case KindExtract:
		return fmt.Sprintf("((_ extract %d %d) %s)", n.ExtractHigh, n.ExtractLow, printSMT(n.Children[0]))
	case KindZeroExtend, KindSignExtend:
		delta := n.BitSize - n.Children[0].BitSize
		return fmt.Sprintf("((_ %s %d) %s)", smtOp(n.Kind), delta, printSMT(n.Children[0]))
	default:
		parts := make([]string, 0, len(n.Children)+1)
		parts = append(parts, smtOp(n.Kind))
		for _, c := range n.Children {
			parts = append(parts, printSMT(c))
		}
		s := "(" + parts[0]
		for _, p := range parts[1:] {
			s += " " + p
		}
		return s + ")"
	}
}

func smtOp(k Kind) string {
	switch k {
	case KindConcat:
		return "concat"
	case KindBvAdd:
		return "bvadd"
	case KindBvSub:
		return "bvsub"
	case KindBvMul:
		return "bvmul"
	case KindBvAnd:
		return "bvand"
	case KindBvOr:
		return "bvor"
	case KindBvXor:
		return "bvxor"
	case KindBvNot:
		return "bvnot"
	case KindBvNeg:
		return "bvneg"
	case KindBvShl:
		return "bvshl"
	case KindBvLshr:
		return "bvlshr"
	case KindBvAshr:
		return "bvashr"
	case KindZeroExtend:
		return "zero_extend"
	case KindSignExtend:
		return "sign_extend"
	case KindIte:
		return "ite"
	case KindEqual:
		return "="
	case KindDistinct:
		return "distinct"
	case KindBvUlt:
		return "bvult"
	case KindBvSlt:
		return "bvslt"
	case KindLAnd:
		return "and"
	case KindLOr:
		return "or"
	case KindLNot:
		return "not"
	default:
		return k.String()
	}
}

// printPython renders node as a Python-expression-like string, for
// callers embedding expressions in generated scripts/reports.
func printPython(n *Node) string {
	if n == nil {
		return "None"
	}
	switch n.Kind {
	case KindConst:
		return fmt.Sprintf("0x%s", n.Value.Text(16))
	case KindVariable:
		return n.VarName
	case KindExtract:
		return fmt.Sprintf("Extract(%d, %d, %s)", n.ExtractHigh, n.ExtractLow, printPython(n.Children[0]))
	default:
		args := ""
		for i, c := range n.Children {
			if i > 0 {
				args += ", "
			}
			args += printPython(c)
		}
		return fmt.Sprintf("%s(%s)", n.Kind, args)
	}
}
