package solver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/types"
)

// Z3Solver shells out to an external z3 binary, piping SMT-LIB2 text
// in on stdin and parsing the model it prints on stdout. It takes an
// explicit binary path and argv rather than a single command string,
// the same way cmd/racedetector/run.go invokes the instrumented
// binary it builds: no shell, no quoting to get wrong.
type Z3Solver struct {
	// BinaryPath is the z3 executable to invoke. Defaults to "z3" on
	// the PATH when empty.
	BinaryPath string
	// Args are extra arguments passed before the "-in" flag, e.g.
	// []string{"-smt2"}.
	Args []string
	pool *ast.Pool
}

// NewZ3Solver returns a Z3Solver that uses pool to re-intern any AST
// the z3 output is parsed back into.
func NewZ3Solver(pool *ast.Pool) *Z3Solver {
	return &Z3Solver{pool: pool}
}

func (z *Z3Solver) binary() string {
	if z.BinaryPath == "" {
		return "z3"
	}
	return z.BinaryPath
}

// run invokes z3 with script on stdin and returns its stdout. A
// non-zero exit is surfaced as SolverFailure, mirroring
// executeBinary's errors.As(*exec.ExitError) pattern.
func (z *Z3Solver) run(script string) (string, error) {
	args := append(append([]string(nil), z.Args...), "-in")
	cmd := exec.Command(z.binary(), args...)
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", types.Wrap(types.ErrKindSolverFailure,
				fmt.Sprintf("z3 exited %d: %s", exitErr.ExitCode(), stderr.String()), err)
		}
		return "", types.Wrap(types.ErrKindSolverFailure, "failed to start z3", err)
	}
	return stdout.String(), nil
}

// declareVars emits (declare-fun ...) lines for every free variable
// reachable from node, in the post-order in which they are first
// reached, so the generated script is deterministic for a given node.
func declareVars(node *ast.Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range ast.ExtractUniqueAstNodes(node) {
		if n.Kind == ast.KindVariable && !seen[n.VarName] {
			seen[n.VarName] = true
			names = append(names, fmt.Sprintf("(declare-fun %s () (_ BitVec %d))", n.VarName, n.BitSize))
		}
	}
	return names
}

func (z *Z3Solver) buildScript(node *ast.Node, extra string) string {
	var b strings.Builder
	for _, decl := range declareVars(node) {
		b.WriteString(decl)
		b.WriteByte('\n')
	}
	b.WriteString("(assert (= #b1 ")
	b.WriteString(z.smtPrintBool(node))
	b.WriteString("))\n")
	b.WriteString(extra)
	return b.String()
}

// smtPrintBool renders a 1-bit node as an SMT-LIB2 bitvector term; the
// core's 1-bit booleans (comparisons, logical connectives) are already
// bitvectors of width 1, so no Bool-sort conversion is needed.
func (z *Z3Solver) smtPrintBool(node *ast.Node) string {
	pool := z.pool
	if pool == nil {
		pool = ast.NewPool()
	}
	var b bytes.Buffer
	_ = pool.PrintAstRepresentation(&b, node)
	return b.String()
}

// GetModel asks z3 for one satisfying assignment.
func (z *Z3Solver) GetModel(node *ast.Node) (Model, error) {
	script := z.buildScript(node, "(check-sat)\n(get-model)\n")
	out, err := z.run(script)
	if err != nil {
		return nil, err
	}
	if strings.Contains(out, "unsat") {
		return Model{}, nil
	}
	return parseZ3Model(out, node), nil
}

// GetModels asks z3 for up to limit distinct models, blocking each
// found assignment before asking again.
func (z *Z3Solver) GetModels(node *ast.Node, limit int) ([]Model, error) {
	var models []Model
	blocking := ""
	for i := 0; i < limit; i++ {
		script := z.buildScript(node, blocking+"(check-sat)\n(get-model)\n")
		out, err := z.run(script)
		if err != nil {
			return models, err
		}
		if strings.Contains(out, "unsat") {
			break
		}
		m := parseZ3Model(out, node)
		if len(m) == 0 {
			break
		}
		models = append(models, m)
		blocking += blockModelClause(m)
	}
	return models, nil
}

func blockModelClause(m Model) string {
	var b strings.Builder
	b.WriteString("(assert (not (and")
	for varName, val := range m {
		b.WriteString(fmt.Sprintf(" (= SymVar_%d #x%x)", varName, val))
	}
	b.WriteString(")))\n")
	return b.String()
}

// Evaluate folds a variable-free node without invoking z3 at all: a
// ground term has exactly one value, which pkg/ast can compute
// directly.
func (z *Z3Solver) Evaluate(node *ast.Node) (uint64, error) {
	return evaluateConcrete(node)
}

// Simplify implements ast.ExternalSimplifier: node is printed to
// SMT-LIB2, z3's simplify tactic is run over it, and the result is
// parsed back into an AST through z's pool. A node with no free
// variables is returned unchanged; simplify only helps on symbolic
// terms, and round-tripping a ground term through z3 would just waste
// a subprocess call.
func (z *Z3Solver) Simplify(node *ast.Node) (*ast.Node, error) {
	if len(declareVars(node)) == 0 {
		return node, nil
	}

	var b strings.Builder
	for _, decl := range declareVars(node) {
		b.WriteString(decl)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "(simplify %s)\n", z.smtPrintBool(node))

	out, err := z.run(b.String())
	if err != nil {
		return node, err
	}

	pool := z.pool
	if pool == nil {
		pool = ast.NewPool()
	}
	result, err := pool.ParseSMT(strings.TrimSpace(out))
	if err != nil {
		return node, types.Wrap(types.ErrKindSimplificationFailure, "failed to parse z3 simplify output", err)
	}
	return result, nil
}

// parseZ3Model scans z3's `(model ...)` s-expression output for
// `(define-fun SymVar_N () (_ BitVec W) #xHEX)` lines, resolving each
// back to the variable id embedded in the default SymVar_N name
// pkg/symbolic assigns. Custom-named variables are skipped since
// their id cannot be recovered from the name alone.
func parseZ3Model(out string, _ *ast.Node) Model {
	model := Model{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "(define-fun SymVar_") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[1]
		idStr := strings.TrimPrefix(name, "SymVar_")
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}
		valField := fields[len(fields)-1]
		valField = strings.TrimSuffix(valField, ")")
		var val uint64
		switch {
		case strings.HasPrefix(valField, "#x"):
			val, _ = strconv.ParseUint(strings.TrimPrefix(valField, "#x"), 16, 64)
		case strings.HasPrefix(valField, "#b"):
			val, _ = strconv.ParseUint(strings.TrimPrefix(valField, "#b"), 2, 64)
		default:
			val, _ = strconv.ParseUint(valField, 10, 64)
		}
		model[id] = val
	}
	return model
}
