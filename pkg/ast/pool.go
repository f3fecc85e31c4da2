package ast

// Pool owns the hash-consing dictionary, the set of live nodes (the
// AST layer's garbage collector root set minus the expression table
// and path constraints, which the symbolic engine tracks itself), and
// the named-variable registry. A façade session owns exactly one Pool.
type Pool struct {
	dictEnabled bool
	dict        map[uint64][]*Node
	allocated   map[*Node]struct{}
	vars        map[string]*Node
	mode        RepresentationMode
}

// NewPool returns an empty Pool with hash-consing enabled.
func NewPool() *Pool {
	return &Pool{
		dictEnabled: true,
		dict:        make(map[uint64][]*Node),
		allocated:   make(map[*Node]struct{}),
		vars:        make(map[string]*Node),
		mode:        ModeSMT,
	}
}

// SetDictionaryEnabled toggles hash-consing (the AST_DICTIONARIES
// optimization, owned by the symbolic engine's optimization set but
// applied here since the dictionary lives in the AST layer).
func (p *Pool) SetDictionaryEnabled(enabled bool) { p.dictEnabled = enabled }

// DictionaryEnabled reports whether hash-consing is active.
func (p *Pool) DictionaryEnabled() bool { return p.dictEnabled }

// RecordAstNode interns n: if an structurally equal node is already
// recorded and AST_DICTIONARIES is enabled, the existing
// representative is returned and n is discarded; otherwise n itself
// is tracked and returned. Idempotent: record(record(n)) == record(n).
func (p *Pool) RecordAstNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	if !p.dictEnabled {
		p.allocated[n] = struct{}{}
		return n
	}
	for _, candidate := range p.dict[n.hash] {
		if candidate.Equal(n) {
			return candidate
		}
	}
	p.dict[n.hash] = append(p.dict[n.hash], n)
	p.allocated[n] = struct{}{}
	return n
}

// ExtractUniqueAstNodes performs a post-order traversal of root,
// collecting each reachable node exactly once.
func ExtractUniqueAstNodes(root *Node) []*Node {
	if root == nil {
		return nil
	}
	visited := make(map[*Node]bool)
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for _, c := range n.Children {
			walk(c)
		}
		out = append(out, n)
	}
	walk(root)
	return out
}

// FreeAstNodes releases nodes from the pool, severing their
// dictionary entries. Already-absent nodes are ignored.
func (p *Pool) FreeAstNodes(nodes []*Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		delete(p.allocated, n)
		bucket := p.dict[n.hash]
		for i, candidate := range bucket {
			if candidate == n {
				p.dict[n.hash] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(p.dict[n.hash]) == 0 {
			delete(p.dict, n.hash)
		}
	}
}

// FreeAllAstNodes tears down the node pool (dictionary and allocated
// set). The variable registry survives; it has its own lifecycle.
func (p *Pool) FreeAllAstNodes() {
	p.dict = make(map[uint64][]*Node)
	p.allocated = make(map[*Node]struct{})
}

// GetAllocatedAstNodes returns every node currently tracked by the pool.
func (p *Pool) GetAllocatedAstNodes() []*Node {
	out := make([]*Node, 0, len(p.allocated))
	for n := range p.allocated {
		out = append(out, n)
	}
	return out
}

// SetAllocatedAstNodes replaces the pool's live set and rebuilds the
// dictionary from it. Used by backup/restore to swap in a snapshot.
func (p *Pool) SetAllocatedAstNodes(nodes []*Node) {
	p.allocated = make(map[*Node]struct{}, len(nodes))
	p.dict = make(map[uint64][]*Node, len(nodes))
	for _, n := range nodes {
		p.allocated[n] = struct{}{}
		p.dict[n.hash] = append(p.dict[n.hash], n)
	}
}

// RecordVariableAstNode binds name to node in the variable registry,
// overwriting any previous binding for name.
func (p *Pool) RecordVariableAstNode(name string, node *Node) {
	p.vars[name] = node
}

// GetAstVariableNode returns the current binding for name, if any.
func (p *Pool) GetAstVariableNode(name string) (*Node, bool) {
	n, ok := p.vars[name]
	return n, ok
}

// GetAstVariableNodes returns the full variable registry.
func (p *Pool) GetAstVariableNodes() map[string]*Node {
	out := make(map[string]*Node, len(p.vars))
	for k, v := range p.vars {
		out[k] = v
	}
	return out
}

// SetAstVariableNodes replaces the variable registry wholesale.
func (p *Pool) SetAstVariableNodes(vars map[string]*Node) {
	p.vars = make(map[string]*Node, len(vars))
	for k, v := range vars {
		p.vars[k] = v
	}
}
