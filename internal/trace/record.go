// Package trace decodes and encodes the flat binary instruction log
// cmd/symbexctl and cmd/symbexplorer read: a sequence of already-
// decoded instructions recorded by whatever front end produced the
// trace.
//
// Record layout, all integers little-endian:
//
//	u64 address
//	u8  mnemonic length, followed by that many ASCII bytes
//	u8  branch flag (0 or 1)
//	u8  operand count N, followed by N operands:
//	    u8 kind   (0 imm, 1 register, 2 memory)
//	    u8 access (0 read, 1 write, 2 read-write)
//	    imm:      u32 bit size, u64 value
//	    register: u8 name length, that many ASCII bytes
//	    memory:   u64 address, u32 size
package trace

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/symbex/internal/buf"
	"github.com/joshuapare/symbex/pkg/facade"
)

const (
	kindImmediate = 0
	kindRegister  = 1
	kindMemory    = 2
)

// operandKindByte maps a façade OperandKind to its wire byte.
func operandKindByte(k facade.OperandKind) byte {
	switch k {
	case facade.OperandRegister:
		return kindRegister
	case facade.OperandMemory:
		return kindMemory
	default:
		return kindImmediate
	}
}

// RawOperand is the wire shape of one operand: a register names its
// target by string since RegisterID is architecture-specific, and the
// decoder resolves it against a session's CPU at read time.
type RawOperand struct {
	Kind       facade.OperandKind
	Access     facade.AccessMode
	ImmValue   uint64
	ImmSize    uint32
	RegName    string
	MemAddress uint64
	MemSize    int
}

// RawInstruction is the wire shape of one record: like
// facade.Instruction, but its register operands are still names
// rather than resolved arch.RegisterID values.
type RawInstruction struct {
	Address  uint64
	Mnemonic string
	Branch   bool
	Operands []RawOperand
}

// appendRecord writes one RawInstruction to b.
func appendRecord(b *bytes.Buffer, inst RawInstruction) error {
	if len(inst.Mnemonic) > 0xFF {
		return fmt.Errorf("trace: mnemonic %q exceeds 255 bytes", inst.Mnemonic)
	}
	if len(inst.Operands) > 0xFF {
		return fmt.Errorf("trace: instruction at %#x has more than 255 operands", inst.Address)
	}

	var addrBuf [8]byte
	buf.PutU64LE(addrBuf[:], inst.Address)
	b.Write(addrBuf[:])

	b.WriteByte(byte(len(inst.Mnemonic)))
	b.WriteString(inst.Mnemonic)

	if inst.Branch {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}

	b.WriteByte(byte(len(inst.Operands)))
	for _, op := range inst.Operands {
		b.WriteByte(operandKindByte(op.Kind))
		b.WriteByte(byte(op.Access))
		switch op.Kind {
		case facade.OperandImmediate:
			var sizeBuf [4]byte
			buf.PutU32LE(sizeBuf[:], op.ImmSize)
			b.Write(sizeBuf[:])
			var valBuf [8]byte
			buf.PutU64LE(valBuf[:], op.ImmValue)
			b.Write(valBuf[:])
		case facade.OperandRegister:
			if len(op.RegName) > 0xFF {
				return fmt.Errorf("trace: register name %q exceeds 255 bytes", op.RegName)
			}
			b.WriteByte(byte(len(op.RegName)))
			b.WriteString(op.RegName)
		case facade.OperandMemory:
			var addrBuf2 [8]byte
			buf.PutU64LE(addrBuf2[:], op.MemAddress)
			b.Write(addrBuf2[:])
			var sizeBuf [4]byte
			buf.PutU32LE(sizeBuf[:], uint32(op.MemSize))
			b.Write(sizeBuf[:])
		}
	}
	return nil
}

// Encode serialises a sequence of RawInstructions into one trace file.
func Encode(insts []RawInstruction) ([]byte, error) {
	var b bytes.Buffer
	for _, inst := range insts {
		if err := appendRecord(&b, inst); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}
