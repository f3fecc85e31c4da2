package arch

// RegisterID identifies a register (or sub-register) within an
// architecture's register file. Sub-registers and flags resolve to a
// parent RegisterID via Geometry.Parent.
type RegisterID uint32

// InvalidRegister is the zero RegisterID; no real architecture assigns it.
const InvalidRegister RegisterID = 0

// Geometry describes a register's name and bit extent within its
// parent register. GPRs are their own parent (Parent == their own id).
type Geometry struct {
	Name   string
	High   int // inclusive high bit, 0-indexed
	Low    int // inclusive low bit, 0-indexed
	Parent RegisterID
	Flag   bool // true for single-bit flag registers (e.g. ZF, CF)
}

// Size returns the bit width of the register described by g.
func (g Geometry) Size() int { return g.High - g.Low + 1 }

// registerTable is an architecture-neutral register table: enumerated ids are
// architecture-specific, but the table shape (id -> geometry) is the
// same contract regardless of architecture.
type registerTable map[RegisterID]Geometry

// x86-64 general purpose registers. Parent registers are the 64-bit
// forms; 32/16/8-bit sub-registers and flag bits resolve to them.
const (
	RAX RegisterID = iota + 1
	EAX
	AX
	AL
	AH
	RBX
	EBX
	BX
	BL
	RCX
	ECX
	CX
	CL
	RDX
	EDX
	DX
	DL
	RSI
	ESI
	RDI
	EDI
	RBP
	RSP
	RIP
	EFLAGS
	CF
	ZF
	SF
	OF
	PF
	AF
)

func x8664Table() registerTable {
	t := registerTable{
		RAX:    {Name: "rax", High: 63, Low: 0, Parent: RAX},
		EAX:    {Name: "eax", High: 31, Low: 0, Parent: RAX},
		AX:     {Name: "ax", High: 15, Low: 0, Parent: RAX},
		AL:     {Name: "al", High: 7, Low: 0, Parent: RAX},
		AH:     {Name: "ah", High: 15, Low: 8, Parent: RAX},
		RBX:    {Name: "rbx", High: 63, Low: 0, Parent: RBX},
		EBX:    {Name: "ebx", High: 31, Low: 0, Parent: RBX},
		BX:     {Name: "bx", High: 15, Low: 0, Parent: RBX},
		BL:     {Name: "bl", High: 7, Low: 0, Parent: RBX},
		RCX:    {Name: "rcx", High: 63, Low: 0, Parent: RCX},
		ECX:    {Name: "ecx", High: 31, Low: 0, Parent: RCX},
		CX:     {Name: "cx", High: 15, Low: 0, Parent: RCX},
		CL:     {Name: "cl", High: 7, Low: 0, Parent: RCX},
		RDX:    {Name: "rdx", High: 63, Low: 0, Parent: RDX},
		EDX:    {Name: "edx", High: 31, Low: 0, Parent: RDX},
		DX:     {Name: "dx", High: 15, Low: 0, Parent: RDX},
		DL:     {Name: "dl", High: 7, Low: 0, Parent: RDX},
		RSI:    {Name: "rsi", High: 63, Low: 0, Parent: RSI},
		ESI:    {Name: "esi", High: 31, Low: 0, Parent: RSI},
		RDI:    {Name: "rdi", High: 63, Low: 0, Parent: RDI},
		EDI:    {Name: "edi", High: 31, Low: 0, Parent: RDI},
		RBP:    {Name: "rbp", High: 63, Low: 0, Parent: RBP},
		RSP:    {Name: "rsp", High: 63, Low: 0, Parent: RSP},
		RIP:    {Name: "rip", High: 63, Low: 0, Parent: RIP},
		EFLAGS: {Name: "eflags", High: 31, Low: 0, Parent: EFLAGS},
		CF:     {Name: "cf", High: 0, Low: 0, Parent: EFLAGS, Flag: true},
		ZF:     {Name: "zf", High: 6, Low: 6, Parent: EFLAGS, Flag: true},
		SF:     {Name: "sf", High: 7, Low: 7, Parent: EFLAGS, Flag: true},
		OF:     {Name: "of", High: 11, Low: 11, Parent: EFLAGS, Flag: true},
		PF:     {Name: "pf", High: 2, Low: 2, Parent: EFLAGS, Flag: true},
		AF:     {Name: "af", High: 4, Low: 4, Parent: EFLAGS, Flag: true},
	}
	return t
}

// AArch64 general purpose registers: X0-X3 (64-bit) with their W0-W3
// 32-bit aliases, enough to exercise widen/narrow across an unrelated
// numbering scheme.
const (
	X0 RegisterID = iota + 100
	W0
	X1
	W1
	X2
	W2
	X3
	W3
	NZCV
	NFlag
	ZFlag
	CFlag
	VFlag
)

func aarch64Table() registerTable {
	return registerTable{
		X0:    {Name: "x0", High: 63, Low: 0, Parent: X0},
		W0:    {Name: "w0", High: 31, Low: 0, Parent: X0},
		X1:    {Name: "x1", High: 63, Low: 0, Parent: X1},
		W1:    {Name: "w1", High: 31, Low: 0, Parent: X1},
		X2:    {Name: "x2", High: 63, Low: 0, Parent: X2},
		W2:    {Name: "w2", High: 31, Low: 0, Parent: X2},
		X3:    {Name: "x3", High: 63, Low: 0, Parent: X3},
		W3:    {Name: "w3", High: 31, Low: 0, Parent: X3},
		NZCV:  {Name: "nzcv", High: 31, Low: 0, Parent: NZCV},
		NFlag: {Name: "n", High: 31, Low: 31, Parent: NZCV, Flag: true},
		ZFlag: {Name: "z", High: 30, Low: 30, Parent: NZCV, Flag: true},
		CFlag: {Name: "c", High: 29, Low: 29, Parent: NZCV, Flag: true},
		VFlag: {Name: "v", High: 28, Low: 28, Parent: NZCV, Flag: true},
	}
}
