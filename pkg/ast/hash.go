package ast

import "hash/fnv"

// computeHash derives a structural hash for n from its already-hashed
// children, so hashing a tree is linear rather than quadratic.
func computeHash(n *Node) uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	writeU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			scratch[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(scratch[:])
	}

	writeU64(uint64(n.Kind))
	writeU64(uint64(n.BitSize))

	switch n.Kind {
	case KindConst:
		_, _ = h.Write(n.Value.Bytes())
	case KindVariable:
		writeU64(n.VarID)
		_, _ = h.Write([]byte(n.VarName))
	case KindExtract:
		writeU64(uint64(n.ExtractLow))
		writeU64(uint64(n.ExtractHigh))
	}

	for _, c := range n.Children {
		writeU64(c.hash)
	}
	return h.Sum64()
}
