package ast

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/joshuapare/symbex/pkg/types"
)

// ParseSMT parses the s-expression grammar printSMT emits back into a
// Node tree, consulting pool's variable registry to resolve bare
// identifiers. This is the reparse half of the external-simplifier
// round trip: the core never needs a general SMT-LIB2 parser, only
// one that understands its own printer's output plus the #x/#b
// bit-vector literals z3 prints.
func (p *Pool) ParseSMT(text string) (*Node, error) {
	toks := tokenizeSMT(text)
	if len(toks) == 0 {
		return nil, types.New(types.ErrKindAstNotFound, "empty SMT text")
	}
	n, rest, err := p.parseSMTExpr(toks)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, types.New(types.ErrKindAstTypingError, "trailing tokens after SMT expression")
	}
	return n, nil
}

func tokenizeSMT(text string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch r {
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func (p *Pool) parseSMTExpr(toks []string) (*Node, []string, error) {
	if len(toks) == 0 {
		return nil, nil, types.New(types.ErrKindAstTypingError, "unexpected end of SMT tokens")
	}
	head := toks[0]
	if head != "(" {
		// Bare atom: a bound variable, a #x/#b bit-vector literal (the
		// notation z3 prints), or invalid.
		if n, ok := p.GetAstVariableNode(head); ok {
			return n, toks[1:], nil
		}
		if len(head) > 2 && (strings.HasPrefix(head, "#x") || strings.HasPrefix(head, "#b")) {
			base, bitsPerDigit := 16, 4
			if head[1] == 'b' {
				base, bitsPerDigit = 2, 1
			}
			value, ok := new(big.Int).SetString(head[2:], base)
			if !ok {
				return nil, nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("malformed bit-vector literal %q", head))
			}
			n, err := NewConst(uint32(len(head[2:])*bitsPerDigit), value)
			if err != nil {
				return nil, nil, err
			}
			return n, toks[1:], nil
		}
		return nil, nil, types.New(types.ErrKindAstNotFound, fmt.Sprintf("unbound SMT identifier %q", head))
	}

	rest := toks[1:]
	if len(rest) == 0 {
		return nil, nil, types.New(types.ErrKindAstTypingError, "unterminated SMT list")
	}

	// (_ bvVALUE SIZE): the underscore header is the whole node, no operand.
	if rest[0] == "_" {
		return p.parseUnderscoreForm(rest[1:])
	}

	// ((_ extract HIGH LOW) operand), ((_ zero_extend N) operand) and
	// ((_ sign_extend N) operand): the underscore header is itself
	// parenthesized and is followed by a separate operand expression.
	if rest[0] == "(" && len(rest) > 1 && rest[1] == "_" {
		return p.parseUnderscoreForm(rest[2:])
	}

	op := rest[0]
	rest = rest[1:]
	var children []*Node
	for len(rest) > 0 && rest[0] != ")" {
		var child *Node
		var err error
		child, rest, err = p.parseSMTExpr(rest)
		if err != nil {
			return nil, nil, err
		}
		children = append(children, child)
	}
	if len(rest) == 0 || rest[0] != ")" {
		return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren")
	}
	rest = rest[1:]

	n, err := buildFromOp(op, children)
	if err != nil {
		return nil, nil, err
	}
	return n, rest, nil
}

func (p *Pool) parseUnderscoreForm(toks []string) (*Node, []string, error) {
	if len(toks) == 0 {
		return nil, nil, types.New(types.ErrKindAstTypingError, "empty underscore form")
	}
	switch {
	case strings.HasPrefix(toks[0], "bv"):
		valueStr := strings.TrimPrefix(toks[0], "bv")
		value, ok := new(big.Int).SetString(valueStr, 10)
		if !ok {
			return nil, nil, types.New(types.ErrKindAstTypingError, "malformed bv constant")
		}
		size, err := strconv.Atoi(toks[1])
		if err != nil {
			return nil, nil, types.Wrap(types.ErrKindAstTypingError, "malformed bv constant size", err)
		}
		n, err := NewConst(uint32(size), value)
		if err != nil {
			return nil, nil, err
		}
		// The caller consumed the "(" that opens "(_ bvN SIZE)"; the
		// single ")" after SIZE closes the whole form.
		if len(toks) < 3 || toks[2] != ")" {
			return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren after bv constant")
		}
		return n, toks[3:], nil
	case toks[0] == "zero_extend" || toks[0] == "sign_extend":
		kind := KindZeroExtend
		if toks[0] == "sign_extend" {
			kind = KindSignExtend
		}
		delta, err := strconv.Atoi(toks[1])
		if err != nil {
			return nil, nil, types.Wrap(types.ErrKindAstTypingError, "malformed extend delta", err)
		}
		if toks[2] != ")" {
			return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren after extend header")
		}
		rest := toks[3:]
		if len(rest) == 0 {
			return nil, nil, types.New(types.ErrKindAstTypingError, "expected extend operand")
		}
		child, rest2, err := p.parseSMTExpr(rest)
		if err != nil {
			return nil, nil, err
		}
		if len(rest2) == 0 || rest2[0] != ")" {
			return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren after extend")
		}
		n, err := NewExtend(kind, child.BitSize+uint32(delta), child)
		if err != nil {
			return nil, nil, err
		}
		return n, rest2[1:], nil
	case toks[0] == "extract":
		high, err := strconv.Atoi(toks[1])
		if err != nil {
			return nil, nil, types.Wrap(types.ErrKindAstTypingError, "malformed extract high", err)
		}
		low, err := strconv.Atoi(toks[2])
		if err != nil {
			return nil, nil, types.Wrap(types.ErrKindAstTypingError, "malformed extract low", err)
		}
		if toks[3] != ")" {
			return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren after extract header")
		}
		rest := toks[4:]
		if len(rest) == 0 {
			return nil, nil, types.New(types.ErrKindAstTypingError, "expected extract operand")
		}
		child, rest2, err := p.parseSMTExpr(rest)
		if err != nil {
			return nil, nil, err
		}
		if len(rest2) == 0 || rest2[0] != ")" {
			return nil, nil, types.New(types.ErrKindAstTypingError, "missing closing paren after extract")
		}
		n, err := NewExtract(low, high, child)
		if err != nil {
			return nil, nil, err
		}
		return n, rest2[1:], nil
	default:
		return nil, nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("unknown underscore form %q", toks[0]))
	}
}

func buildFromOp(op string, children []*Node) (*Node, error) {
	switch op {
	case "concat":
		return NewConcat(children...)
	case "bvadd":
		return NewBinary(KindBvAdd, children[0], children[1])
	case "bvsub":
		return NewBinary(KindBvSub, children[0], children[1])
	case "bvmul":
		return NewBinary(KindBvMul, children[0], children[1])
	case "bvand":
		return NewBinary(KindBvAnd, children[0], children[1])
	case "bvor":
		return NewBinary(KindBvOr, children[0], children[1])
	case "bvxor":
		return NewBinary(KindBvXor, children[0], children[1])
	case "bvshl":
		return NewBinary(KindBvShl, children[0], children[1])
	case "bvlshr":
		return NewBinary(KindBvLshr, children[0], children[1])
	case "bvashr":
		return NewBinary(KindBvAshr, children[0], children[1])
	case "bvnot":
		return NewUnary(KindBvNot, children[0])
	case "bvneg":
		return NewUnary(KindBvNeg, children[0])
	case "ite":
		return NewIte(children[0], children[1], children[2])
	case "=":
		return NewComparison(KindEqual, children[0], children[1])
	case "distinct":
		return NewComparison(KindDistinct, children[0], children[1])
	case "bvult":
		return NewComparison(KindBvUlt, children[0], children[1])
	case "bvslt":
		return NewComparison(KindBvSlt, children[0], children[1])
	case "and":
		return NewLogical(KindLAnd, children...)
	case "or":
		return NewLogical(KindLOr, children...)
	case "not":
		return NewLogical(KindLNot, children...)
	default:
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("unknown SMT operator %q", op))
	}
}
