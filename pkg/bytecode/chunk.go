package bytecode

import (
	"fmt"

	"github.com/torchlight/gserver/script"
)

// Chunk holds the compiled code and constant pool of one function body.
type Chunk struct {
	// Code section: byte-addressed instructions with big-endian operands.
	Code []byte

	// Constant pool referenced by OpConst, OpLoadGlobal, OpMember and
	// the call opcodes.
	Constants []script.Value

	// constantKeys dedups pool entries. Only scalar constants are ever
	// emitted, so kind plus rendering identifies a value.
	constantKeys map[string]uint16
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:         make([]byte, 0, 64),
		Constants:    make([]script.Value, 0, 8),
		constantKeys: make(map[string]uint16),
	}
}

// AddConstant adds a constant to the pool and returns its index. Duplicate
// scalars reuse the existing slot.
func (c *Chunk) AddConstant(v script.Value) (uint16, error) {
	key := fmt.Sprintf("%d:%s", v.Kind, v.ToString())
	if idx, ok := c.constantKeys[key]; ok {
		return idx, nil
	}
	if len(c.Constants) >= 0xFFFF {
		return 0, script.NewRuntimeError("constant pool overflow")
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, v)
	c.constantKeys[key] = idx
	return idx, nil
}

// AddName interns a string constant and returns its index. Used for global
// names, member names and method names.
func (c *Chunk) AddName(name string) (uint16, error) {
	return c.AddConstant(script.String(name))
}

// Emit appends a single-byte opcode to the code section.
func (c *Chunk) Emit(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return offset
}

// EmitU8 appends an opcode with a one-byte operand.
func (c *Chunk) EmitU8(op Opcode, operand byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), operand)
	return offset
}

// EmitU16 appends an opcode with a big-endian two-byte operand.
func (c *Chunk) EmitU16(op Opcode, operand uint16) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), byte(operand>>8), byte(operand))
	return offset
}

// EmitU16U8 appends an opcode with a u16 and a u8 operand (call forms).
func (c *Chunk) EmitU16U8(op Opcode, a uint16, b byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), byte(a>>8), byte(a), b)
	return offset
}

// EmitJump emits a jump instruction with a placeholder offset.
// Returns the offset of the placeholder for later patching.
func (c *Chunk) EmitJump(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), 0xFF, 0xFF)
	return offset + 1
}

// PatchJump patches a jump placeholder to target the current position.
// Offsets are relative to the end of the jump instruction.
func (c *Chunk) PatchJump(placeholderOffset int) error {
	return c.PatchJumpTo(placeholderOffset, len(c.Code))
}

// PatchJumpTo patches a jump placeholder to target a specific offset.
// Deltas must fit the i16 operand; a body too large to jump across is a
// compile error.
func (c *Chunk) PatchJumpTo(placeholderOffset int, target int) error {
	jumpFrom := placeholderOffset + 2
	delta := target - jumpFrom
	if delta < -32768 || delta > 32767 {
		return script.NewRuntimeError("jump offset %d exceeds i16 range", delta)
	}

	c.Code[placeholderOffset] = byte(delta >> 8)
	c.Code[placeholderOffset+1] = byte(delta)
	return nil
}

// EmitLoop emits a backward jump to the given loop start.
func (c *Chunk) EmitLoop(loopStart int) error {
	jumpFrom := len(c.Code) + 3
	delta := loopStart - jumpFrom
	if delta < -32768 || delta > 32767 {
		return script.NewRuntimeError("jump offset %d exceeds i16 range", delta)
	}

	c.Code = append(c.Code, byte(OpJump), byte(delta>>8), byte(delta))
	return nil
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}
