package symbolic

import "github.com/joshuapare/symbex/pkg/arch"

// BackupSymbolicEngine snapshots the engine's entire mutable state
// (register/memory bindings, expression and variable tables, id
// counters, path constraints and the AST pool's live set) and
// transitions to BACKED_UP. The backup is one-deep: a second call
// discards whatever snapshot preceded it. Expressions and variables
// are copied by value, not by pointer, since
// ConvertExpressionToSymbolicVariable mutates an Expression's Node in
// place and a shared-pointer snapshot would not be able to undo that.
func (e *Engine) BackupSymbolicEngine() error {
	if err := e.checkSymbolic(); err != nil {
		return err
	}

	snap := &snapshot{
		memMap:          make(map[uint64]uint64, len(e.memMap)),
		regMap:          make(map[arch.RegisterID]uint64, len(e.regMap)),
		alignedIndex:    make(map[uint64]alignedEntry, len(e.alignedIndex)),
		expressions:     make(map[uint64]Expression, len(e.expressions)),
		variables:       make(map[uint64]Variable, len(e.variables)),
		nextExprID:      e.nextExprID,
		nextVarID:       e.nextVarID,
		pathConstraints: append([]PathConstraint(nil), e.pathConstraints...),
		poolAllocated:   e.pool.GetAllocatedAstNodes(),
		poolVars:        e.pool.GetAstVariableNodes(),
	}
	for k, v := range e.memMap {
		snap.memMap[k] = v
	}
	for k, v := range e.regMap {
		snap.regMap[k] = v
	}
	for k, v := range e.alignedIndex {
		snap.alignedIndex[k] = v
	}
	for id, expr := range e.expressions {
		snap.expressions[id] = *expr
	}
	for id, v := range e.variables {
		snap.variables[id] = *v
	}

	e.backup = snap
	e.state = BackedUp
	return nil
}

// RestoreSymbolicEngine restores the most recent snapshot taken by
// BackupSymbolicEngine. Calling it with no snapshot present is a no-op.
// The snapshot itself is kept, so a second restore returns to the same
// point again until the next BackupSymbolicEngine overwrites it.
func (e *Engine) RestoreSymbolicEngine() error {
	if err := e.checkSymbolic(); err != nil {
		return err
	}
	if e.backup == nil {
		return nil
	}
	snap := e.backup

	e.memMap = make(map[uint64]uint64, len(snap.memMap))
	for k, v := range snap.memMap {
		e.memMap[k] = v
	}
	e.regMap = make(map[arch.RegisterID]uint64, len(snap.regMap))
	for k, v := range snap.regMap {
		e.regMap[k] = v
	}
	e.alignedIndex = make(map[uint64]alignedEntry, len(snap.alignedIndex))
	for k, v := range snap.alignedIndex {
		e.alignedIndex[k] = v
	}
	e.expressions = make(map[uint64]*Expression, len(snap.expressions))
	for id, expr := range snap.expressions {
		cp := expr
		e.expressions[id] = &cp
	}
	e.variables = make(map[uint64]*Variable, len(snap.variables))
	for id, v := range snap.variables {
		cp := v
		e.variables[id] = &cp
	}
	e.nextExprID = snap.nextExprID
	e.nextVarID = snap.nextVarID
	e.pathConstraints = append([]PathConstraint(nil), snap.pathConstraints...)

	e.pool.SetAllocatedAstNodes(snap.poolAllocated)
	e.pool.SetAstVariableNodes(snap.poolVars)

	e.state = Running
	return nil
}

// HasBackup reports whether a snapshot is currently held.
func (e *Engine) HasBackup() bool { return e.backup != nil }
