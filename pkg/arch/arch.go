// Package arch models the CPU register file and byte-addressed memory
// that the symbolic and taint engines read through. It is the leaf
// subsystem: the AST, callbacks, symbolic and taint packages all treat
// it as the source of concrete truth for un-bound locations.
package arch

import (
	"encoding/binary"

	"github.com/joshuapare/symbex/internal/buf"
	"github.com/joshuapare/symbex/pkg/types"
)

// ID enumerates the architectures this core understands.
type ID int

const (
	Invalid ID = iota
	X8664
	AArch64
)

func (id ID) String() string {
	switch id {
	case X8664:
		return "x86-64"
	case AArch64:
		return "aarch64"
	default:
		return "invalid"
	}
}

// containerBytes is the width of a register's backing container.
// Every defined register in this core fits in the low 8 bytes; the
// remaining bytes exist so the container matches the 512-bit SIMD
// geometry the wider engine is specified against.
const containerBytes = 64

// CPU holds the register file and memory map for one session. It
// never allocates a memory entry on read, only on write, per the
// architecture contract.
type CPU struct {
	id    ID
	table registerTable
	regs  map[RegisterID][containerBytes]byte
	mem   map[uint64]byte
}

// NewCPU returns a CPU with no architecture selected.
func NewCPU() *CPU {
	return &CPU{
		regs: make(map[RegisterID][containerBytes]byte),
		mem:  make(map[uint64]byte),
	}
}

// SetArchitecture selects the register geometry table. It rejects
// unknown ids without mutating existing state.
func (c *CPU) SetArchitecture(id ID) error {
	var table registerTable
	switch id {
	case X8664:
		table = x8664Table()
	case AArch64:
		table = aarch64Table()
	default:
		return types.New(types.ErrKindUnsupportedArchitecture, "unknown architecture id")
	}
	c.id = id
	c.table = table
	c.regs = make(map[RegisterID][containerBytes]byte)
	c.mem = make(map[uint64]byte)
	return nil
}

// Architecture returns the currently selected architecture id.
func (c *CPU) Architecture() ID { return c.id }

// IsArchitectureValid reports whether an architecture has been selected.
func (c *CPU) IsArchitectureValid() bool { return c.id != Invalid }

// ClearArchitecture resets the CPU to its pre-init state: no
// architecture, no registers, no memory.
func (c *CPU) ClearArchitecture() {
	c.id = Invalid
	c.table = nil
	c.regs = make(map[RegisterID][containerBytes]byte)
	c.mem = make(map[uint64]byte)
}

// Clear wipes register and memory contents but keeps the selected
// architecture's geometry table in place.
func (c *CPU) Clear() {
	c.regs = make(map[RegisterID][containerBytes]byte)
	c.mem = make(map[uint64]byte)
}

func (c *CPU) checkArch() error {
	if !c.IsArchitectureValid() {
		return types.New(types.ErrKindArchitectureNotInitialised, "no architecture selected")
	}
	return nil
}

// IsRegisterValid reports whether reg is known to the current architecture.
func (c *CPU) IsRegisterValid(reg RegisterID) bool {
	if c.table == nil {
		return false
	}
	_, ok := c.table[reg]
	return ok
}

// IsRegister reports whether reg is a valid, non-flag register.
func (c *CPU) IsRegister(reg RegisterID) bool {
	g, ok := c.table[reg]
	return ok && !g.Flag
}

// IsFlag reports whether reg is a single-bit flag register.
func (c *CPU) IsFlag(reg RegisterID) bool {
	g, ok := c.table[reg]
	return ok && g.Flag
}

// LookupRegister resolves name (case-sensitive, matching the table's
// own spelling, e.g. "eax") to its RegisterID under the current
// architecture. It is the inverse of Geometry.Name, used by tooling
// that reads register names from text or a trace file rather than
// carrying RegisterID constants directly.
func (c *CPU) LookupRegister(name string) (RegisterID, bool) {
	for id, g := range c.table {
		if g.Name == name {
			return id, true
		}
	}
	return InvalidRegister, false
}

// GetRegisterGeometry returns the (name, high, low, parent) tuple for reg.
func (c *CPU) GetRegisterGeometry(reg RegisterID) (Geometry, error) {
	if err := c.checkArch(); err != nil {
		return Geometry{}, err
	}
	g, ok := c.table[reg]
	if !ok {
		return Geometry{}, types.New(types.ErrKindInvalidRegister, "unknown register id")
	}
	return g, nil
}

// GetConcreteRegisterValue reads reg's current concrete value,
// narrowing or widening from its parent container as required.
func (c *CPU) GetConcreteRegisterValue(reg RegisterID) (uint64, error) {
	g, err := c.GetRegisterGeometry(reg)
	if err != nil {
		return 0, err
	}
	container := c.regs[g.Parent]
	parentVal := binary.LittleEndian.Uint64(container[:8])
	return extractBits(parentVal, g.Low, g.High), nil
}

// SetConcreteRegisterValue writes val into reg's bit range of its
// parent container, leaving sibling bits of the parent intact.
func (c *CPU) SetConcreteRegisterValue(reg RegisterID, val uint64) error {
	g, err := c.GetRegisterGeometry(reg)
	if err != nil {
		return err
	}
	container := c.regs[g.Parent]
	parentVal := binary.LittleEndian.Uint64(container[:8])
	parentVal = insertBits(parentVal, g.Low, g.High, val)
	binary.LittleEndian.PutUint64(container[:8], parentVal)
	c.regs[g.Parent] = container
	return nil
}

// extractBits returns bits [low,high] of v, right-aligned.
func extractBits(v uint64, low, high int) uint64 {
	width := high - low + 1
	if width >= 64 {
		return v >> low
	}
	mask := (uint64(1) << uint(width)) - 1
	return (v >> uint(low)) & mask
}

// insertBits writes val into bits [low,high] of orig, preserving the rest.
func insertBits(orig uint64, low, high int, val uint64) uint64 {
	width := high - low + 1
	var mask uint64
	if width >= 64 {
		mask = ^uint64(0)
	} else {
		mask = (uint64(1) << uint(width)) - 1
	}
	cleared := orig &^ (mask << uint(low))
	return cleared | ((val & mask) << uint(low))
}

// GetConcreteMemoryByte reads the byte at addr. Unmapped addresses
// read as zero and never allocate a map entry.
func (c *CPU) GetConcreteMemoryByte(addr uint64) byte {
	return c.mem[addr]
}

// IsMemoryMapped reports whether addr currently has an explicit entry.
func (c *CPU) IsMemoryMapped(addr uint64) bool {
	_, ok := c.mem[addr]
	return ok
}

// IsMemoryRangeMapped reports whether every byte in [addr, addr+size)
// currently has an explicit entry.
func (c *CPU) IsMemoryRangeMapped(addr uint64, size int) bool {
	for i := 0; i < size; i++ {
		if !c.IsMemoryMapped(addr + uint64(i)) {
			return false
		}
	}
	return true
}

// SetConcreteMemoryByte writes a single byte, allocating a map entry.
func (c *CPU) SetConcreteMemoryByte(addr uint64, val byte) {
	c.mem[addr] = val
}

// ReadMemory reads size bytes starting at addr. Unmapped bytes read as
// zero; this never errors because every address is conceptually valid
// in a flat byte-addressed space.
func (c *CPU) ReadMemory(addr uint64, size int) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = c.GetConcreteMemoryByte(addr + uint64(i))
	}
	return out
}

// WriteMemory writes data starting at addr, allocating entries as needed.
func (c *CPU) WriteMemory(addr uint64, data []byte) {
	for i, b := range data {
		c.SetConcreteMemoryByte(addr+uint64(i), b)
	}
}

// UnmapMemory removes explicit entries for [addr, addr+size).
func (c *CPU) UnmapMemory(addr uint64, size int) {
	for i := 0; i < size; i++ {
		delete(c.mem, addr+uint64(i))
	}
}

// U64LE decodes a little-endian uint64 from a byte slice, delegating
// to the shared bounds-safe decoder rather than re-deriving it here.
func U64LE(b []byte) uint64 { return buf.U64LE(b) }
