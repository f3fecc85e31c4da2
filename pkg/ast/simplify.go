package ast

import (
	"github.com/joshuapare/symbex/pkg/callbacks"
	"github.com/joshuapare/symbex/pkg/types"
)

// ExternalSimplifier models the optional external SMT simplifier:
// an AST goes out, and an AST textually round-tripped through
// SMT-LIB2 comes back. The solver package implements this.
type ExternalSimplifier interface {
	Simplify(node *Node) (*Node, error)
}

// identitySimplifier is the default ExternalSimplifier: it leaves the
// node unchanged. Used when no real external simplifier is wired in.
type identitySimplifier struct{}

func (identitySimplifier) Simplify(node *Node) (*Node, error) { return node, nil }

// Identity is the no-op ExternalSimplifier.
var Identity ExternalSimplifier = identitySimplifier{}

// ProcessSimplification runs the simplification pipeline on node:
//
//  1. if dispatcher has registered SYMBOLIC_SIMPLIFICATION handlers,
//     chain them left-to-right, each handler's output feeding the next;
//  2. if useExternal and external is non-nil, pass the result through
//     the external simplifier;
//  3. re-intern the final node through pool if pool is non-nil.
//
// The pipeline is pure: node itself is never mutated, only replaced.
// On any stage error, the original node is returned alongside the
// error so callers never observe a partially-simplified result.
func (p *Pool) ProcessSimplification(
	node *Node,
	useExternal bool,
	dispatcher *callbacks.Dispatcher,
	external ExternalSimplifier,
) (*Node, error) {
	current := node

	if dispatcher != nil && dispatcher.HasSimplificationHandlers() {
		result, err := dispatcher.ProcessSimplification(interface{}(current))
		if err != nil {
			return node, err
		}
		next, ok := result.(*Node)
		if !ok || next == nil {
			return node, types.New(types.ErrKindSimplificationFailure, "simplification handler returned non-*ast.Node")
		}
		current = next
	}

	if useExternal && external != nil {
		next, err := external.Simplify(current)
		if err != nil {
			return node, types.Wrap(types.ErrKindSimplificationFailure, "external simplifier failed", err)
		}
		current = next
	}

	if p != nil {
		current = p.RecordAstNode(current)
	}
	return current, nil
}
