package trace

import (
	"fmt"
	"io"

	"github.com/joshuapare/symbex/internal/buf"
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/facade"
)

// Resolver resolves a register's textual name to the architecture-
// specific id a façade Session understands. *facade.Session's
// LookupRegister method has this exact signature.
type Resolver func(name string) (regID arch.RegisterID, ok bool)

// Decoder reads RawInstructions off a byte slice produced by Encode,
// bounds-checking every field through internal/buf before trusting it.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps data for sequential decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Next decodes the next record, or returns io.EOF once the buffer is
// exhausted. A malformed or truncated record reports an error rather
// than panicking.
func (d *Decoder) Next() (RawInstruction, error) {
	if d.pos >= len(d.buf) {
		return RawInstruction{}, io.EOF
	}

	addrBytes, ok := buf.Slice(d.buf, d.pos, 8)
	if !ok {
		return RawInstruction{}, fmt.Errorf("trace: truncated record at offset %d: address", d.pos)
	}
	inst := RawInstruction{Address: buf.U64LE(addrBytes)}
	d.pos += 8

	mnLen, err := d.readByte()
	if err != nil {
		return RawInstruction{}, err
	}
	mn, ok := buf.Slice(d.buf, d.pos, int(mnLen))
	if !ok {
		return RawInstruction{}, fmt.Errorf("trace: truncated record at offset %d: mnemonic", d.pos)
	}
	inst.Mnemonic = string(mn)
	d.pos += int(mnLen)

	branchByte, err := d.readByte()
	if err != nil {
		return RawInstruction{}, err
	}
	inst.Branch = branchByte != 0

	opCount, err := d.readByte()
	if err != nil {
		return RawInstruction{}, err
	}

	for i := 0; i < int(opCount); i++ {
		op, err := d.readOperand()
		if err != nil {
			return RawInstruction{}, fmt.Errorf("trace: instruction at %#x: operand %d: %w", inst.Address, i, err)
		}
		inst.Operands = append(inst.Operands, op)
	}
	return inst, nil
}

func (d *Decoder) readOperand() (RawOperand, error) {
	kindByte, err := d.readByte()
	if err != nil {
		return RawOperand{}, err
	}
	accessByte, err := d.readByte()
	if err != nil {
		return RawOperand{}, err
	}
	op := RawOperand{Access: facade.AccessMode(accessByte)}

	switch kindByte {
	case kindImmediate:
		op.Kind = facade.OperandImmediate
		sizeBytes, ok := buf.Slice(d.buf, d.pos, 4)
		if !ok {
			return RawOperand{}, fmt.Errorf("truncated: immediate size")
		}
		op.ImmSize = buf.U32LE(sizeBytes)
		d.pos += 4
		valBytes, ok := buf.Slice(d.buf, d.pos, 8)
		if !ok {
			return RawOperand{}, fmt.Errorf("truncated: immediate value")
		}
		op.ImmValue = buf.U64LE(valBytes)
		d.pos += 8
	case kindRegister:
		op.Kind = facade.OperandRegister
		nameLen, err := d.readByte()
		if err != nil {
			return RawOperand{}, err
		}
		name, ok := buf.Slice(d.buf, d.pos, int(nameLen))
		if !ok {
			return RawOperand{}, fmt.Errorf("truncated: register name")
		}
		op.RegName = string(name)
		d.pos += int(nameLen)
	case kindMemory:
		op.Kind = facade.OperandMemory
		addrBytes, ok := buf.Slice(d.buf, d.pos, 8)
		if !ok {
			return RawOperand{}, fmt.Errorf("truncated: memory address")
		}
		op.MemAddress = buf.U64LE(addrBytes)
		d.pos += 8
		sizeBytes, ok := buf.Slice(d.buf, d.pos, 4)
		if !ok {
			return RawOperand{}, fmt.Errorf("truncated: memory size")
		}
		op.MemSize = int(buf.U32LE(sizeBytes))
		d.pos += 4
	default:
		return RawOperand{}, fmt.Errorf("unknown operand kind byte %d", kindByte)
	}
	return op, nil
}

func (d *Decoder) readByte() (byte, error) {
	b, ok := buf.Slice(d.buf, d.pos, 1)
	if !ok {
		return 0, fmt.Errorf("trace: truncated record at offset %d", d.pos)
	}
	d.pos++
	return b[0], nil
}

// DecodeAll reads every record in data.
func DecodeAll(data []byte) ([]RawInstruction, error) {
	dec := NewDecoder(data)
	var out []RawInstruction
	for {
		inst, err := dec.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
}

// Resolve converts raw into a facade.Instruction, resolving each
// register operand's name through lookup.
func Resolve(raw RawInstruction, lookup Resolver) (*facade.Instruction, error) {
	inst := &facade.Instruction{
		Address:  raw.Address,
		Mnemonic: raw.Mnemonic,
		Branch:   raw.Branch,
	}
	for _, op := range raw.Operands {
		switch op.Kind {
		case facade.OperandImmediate:
			inst.Operands = append(inst.Operands, facade.Operand{
				Kind:    facade.OperandImmediate,
				Imm:     op.ImmValue,
				ImmSize: op.ImmSize,
				Access:  op.Access,
			})
		case facade.OperandRegister:
			id, ok := lookup(op.RegName)
			if !ok {
				return nil, fmt.Errorf("trace: instruction at %#x: unknown register %q", raw.Address, op.RegName)
			}
			inst.Operands = append(inst.Operands, facade.Reg(id, op.Access))
		case facade.OperandMemory:
			inst.Operands = append(inst.Operands, facade.Mem(op.MemAddress, op.MemSize, op.Access))
		}
	}
	return inst, nil
}
