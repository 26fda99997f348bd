package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation
	OpPop Opcode = 0x01 // Pop top of stack
	OpDup Opcode = 0x02 // Duplicate top of stack

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst Opcode = 0x10 // Push constant from pool: OpConst <index:u16>
	OpNull  Opcode = 0x11 // Push null
	OpTrue  Opcode = 0x12 // Push true
	OpFalse Opcode = 0x13 // Push false
	OpZero  Opcode = 0x14 // Push 0
	OpOne   Opcode = 0x15 // Push 1

	// ========================================================================
	// Variables (0x20-0x2F)
	// ========================================================================

	OpLoadLocal   Opcode = 0x20 // Push local/param slot: OpLoadLocal <slot:u8>
	OpStoreLocal  Opcode = 0x21 // Pop and store to slot: OpStoreLocal <slot:u8>
	OpLoadGlobal  Opcode = 0x22 // Push global by name: OpLoadGlobal <name_index:u16>
	OpStoreGlobal Opcode = 0x23 // Pop and store global: OpStoreGlobal <name_index:u16>

	// ========================================================================
	// Arrays and members (0x30-0x3F)
	// ========================================================================

	OpMakeArray Opcode = 0x30 // Pop n elements, push array: OpMakeArray <count:u16>
	OpIndex     Opcode = 0x31 // Pop index and array, push element
	OpSetIndex  Opcode = 0x32 // Pop value, index, array; store; push value
	OpMember    Opcode = 0x33 // Pop receiver, push property: OpMember <name_index:u16>
	OpSetMember Opcode = 0x34 // Pop value and receiver, set property, push value: OpSetMember <name_index:u16>

	// ========================================================================
	// Arithmetic (0x40-0x47)
	// ========================================================================

	OpAdd Opcode = 0x40 // Pop two, push sum (or concatenation)
	OpSub Opcode = 0x41 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x42 // Pop two, push product
	OpDiv Opcode = 0x43 // Pop two, push quotient
	OpMod Opcode = 0x44 // Pop two, push remainder
	OpNeg Opcode = 0x45 // Negate top of stack

	// ========================================================================
	// Bitwise (0x48-0x4F)
	// ========================================================================

	OpBitAnd Opcode = 0x48 // Pop two, push a & b
	OpBitOr  Opcode = 0x49 // Pop two, push a | b
	OpBitXor Opcode = 0x4A // Pop two, push a ^ b
	OpBitNot Opcode = 0x4B // Bitwise complement of top of stack
	OpShl    Opcode = 0x4C // Pop two, push a << b
	OpShr    Opcode = 0x4D // Pop two, push a >> b

	// ========================================================================
	// Comparison (0x50-0x5F)
	// ========================================================================

	OpEq Opcode = 0x50 // Pop two, push true if equal
	OpNe Opcode = 0x51 // Pop two, push true if not equal
	OpLt Opcode = 0x52 // Pop two, push true if a < b
	OpLe Opcode = 0x53 // Pop two, push true if a <= b
	OpGt Opcode = 0x54 // Pop two, push true if a > b
	OpGe Opcode = 0x55 // Pop two, push true if a >= b

	// ========================================================================
	// Logical (0x58-0x5F)
	// ========================================================================

	OpNot Opcode = 0x58 // Push true if top is falsy

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump      Opcode = 0x80 // Unconditional jump: OpJump <offset:i16>
	OpJumpTrue  Opcode = 0x81 // Pop; jump if truthy: OpJumpTrue <offset:i16>
	OpJumpFalse Opcode = 0x82 // Pop; jump if falsy: OpJumpFalse <offset:i16>

	// ========================================================================
	// Calls (0x90-0x9F)
	// ========================================================================

	OpCall        Opcode = 0x90 // Call script function: OpCall <func:u16> <argc:u8>
	OpCallBuiltin Opcode = 0x91 // Call builtin: OpCallBuiltin <builtin:u16> <argc:u8>
	OpCallMethod  Opcode = 0x92 // Call method on receiver: OpCallMethod <name_index:u16> <argc:u8>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn     Opcode = 0xF0 // Return top of stack
	OpReturnNull Opcode = 0xF1 // Return null
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNop: {"NOP", 0, 0, 0},
	OpPop: {"POP", 1, 0, 0},
	OpDup: {"DUP", 1, 2, 0},

	// Constants
	OpConst: {"CONST", 0, 1, 2},
	OpNull:  {"NULL", 0, 1, 0},
	OpTrue:  {"TRUE", 0, 1, 0},
	OpFalse: {"FALSE", 0, 1, 0},
	OpZero:  {"ZERO", 0, 1, 0},
	OpOne:   {"ONE", 0, 1, 0},

	// Variables
	OpLoadLocal:   {"LOAD_LOCAL", 0, 1, 1},
	OpStoreLocal:  {"STORE_LOCAL", 1, 0, 1},
	OpLoadGlobal:  {"LOAD_GLOBAL", 0, 1, 2},
	OpStoreGlobal: {"STORE_GLOBAL", 1, 0, 2},

	// Arrays and members
	OpMakeArray: {"MAKE_ARRAY", -1, 1, 2},
	OpIndex:     {"INDEX", 2, 1, 0},
	OpSetIndex:  {"SET_INDEX", 3, 1, 0},
	OpMember:    {"MEMBER", 1, 1, 2},
	OpSetMember: {"SET_MEMBER", 2, 1, 2},

	// Arithmetic
	OpAdd: {"ADD", 2, 1, 0},
	OpSub: {"SUB", 2, 1, 0},
	OpMul: {"MUL", 2, 1, 0},
	OpDiv: {"DIV", 2, 1, 0},
	OpMod: {"MOD", 2, 1, 0},
	OpNeg: {"NEG", 1, 1, 0},

	// Bitwise
	OpBitAnd: {"BIT_AND", 2, 1, 0},
	OpBitOr:  {"BIT_OR", 2, 1, 0},
	OpBitXor: {"BIT_XOR", 2, 1, 0},
	OpBitNot: {"BIT_NOT", 1, 1, 0},
	OpShl:    {"SHL", 2, 1, 0},
	OpShr:    {"SHR", 2, 1, 0},

	// Comparison
	OpEq: {"EQ", 2, 1, 0},
	OpNe: {"NE", 2, 1, 0},
	OpLt: {"LT", 2, 1, 0},
	OpLe: {"LE", 2, 1, 0},
	OpGt: {"GT", 2, 1, 0},
	OpGe: {"GE", 2, 1, 0},

	// Logical
	OpNot: {"NOT", 1, 1, 0},

	// Control flow
	OpJump:      {"JUMP", 0, 0, 2},
	OpJumpTrue:  {"JUMP_TRUE", 1, 0, 2},
	OpJumpFalse: {"JUMP_FALSE", 1, 0, 2},

	// Calls
	OpCall:        {"CALL", -1, 1, 3},
	OpCallBuiltin: {"CALL_BUILTIN", -1, 1, 3},
	OpCallMethod:  {"CALL_METHOD", -1, 1, 3},

	// Return
	OpReturn:     {"RETURN", 1, 0, 0},
	OpReturnNull: {"RETURN_NULL", 0, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op >= OpJump && op <= OpJumpFalse
}

// IsReturn returns true if this opcode terminates execution.
func (op Opcode) IsReturn() bool {
	return op == OpReturn || op == OpReturnNull
}

// IsCall returns true if this opcode invokes a function, builtin or method.
func (op Opcode) IsCall() bool {
	return op >= OpCall && op <= OpCallMethod
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
