package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies an IR instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpPop  Opcode = 0x01 // Pop top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack
	OpSwap Opcode = 0x03 // Swap top two stack elements

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpPushNumber Opcode = 0x10 // Push Num
	OpPushString Opcode = 0x11 // Push Str
	OpPushBool   Opcode = 0x12 // Push Arg != 0
	OpPushNull   Opcode = 0x13 // Push null

	// ========================================================================
	// Variables (0x20-0x2F)
	// ========================================================================

	OpLoadVar  Opcode = 0x20 // Push variable Str
	OpStoreVar Opcode = 0x21 // Pop and store to variable Str

	// ========================================================================
	// Arithmetic (0x30-0x3F)
	// ========================================================================

	OpAdd      Opcode = 0x30 // a + b (numeric or concatenation)
	OpSub      Opcode = 0x31 // a - b
	OpMul      Opcode = 0x32 // a * b
	OpDiv      Opcode = 0x33 // a / b
	OpMod      Opcode = 0x34 // a % b
	OpPow      Opcode = 0x35 // a ** b
	OpFloorDiv Opcode = 0x36 // a // b
	OpNeg      Opcode = 0x37 // -a

	// ========================================================================
	// Comparison and logic (0x40-0x4F)
	// ========================================================================

	OpEq  Opcode = 0x40 // a == b
	OpNe  Opcode = 0x41 // a != b
	OpLt  Opcode = 0x42 // a < b
	OpLe  Opcode = 0x43 // a <= b
	OpGt  Opcode = 0x44 // a > b
	OpGe  Opcode = 0x45 // a >= b
	OpAnd Opcode = 0x46 // a && b
	OpOr  Opcode = 0x47 // a || b
	OpNot Opcode = 0x48 // !a

	// ========================================================================
	// Control flow (0x50-0x5F)
	// ========================================================================

	OpJump        Opcode = 0x50 // Jump to Arg
	OpJumpIfFalse Opcode = 0x51 // Pop; jump to Arg if falsey
	OpJumpIfTrue  Opcode = 0x52 // Pop; jump to Arg if truthy
	OpLabel       Opcode = 0x53 // Label Str (no-op at run time)

	// ========================================================================
	// Functions (0x60-0x6F)
	// ========================================================================

	OpDefineFunction Opcode = 0x60 // Function Str at Arg with Params (no-op at run time)
	OpCall           Opcode = 0x61 // Call function Str with Arg arguments
	OpReturn         Opcode = 0x62 // Return top of stack
	OpLibCall        Opcode = 0x63 // Call library Str function Name with Arg arguments

	// ========================================================================
	// Collections (0x70-0x7F)
	// ========================================================================

	OpMakeArray Opcode = 0x70 // Pop Arg values into an array
	OpMakeMap   Opcode = 0x71 // Pop Arg key/value pairs into a map
	OpGetIndex  Opcode = 0x72 // collection[index]
	OpSetIndex  Opcode = 0x73 // Push collection with [index] = value
	OpLen       Opcode = 0x74 // Length of array, map or string
	OpIterable  Opcode = 0x75 // Convert a value to an array for iteration

	// ========================================================================
	// Exceptions (0x80-0x8F)
	// ========================================================================

	OpSetupTry Opcode = 0x80 // Install handler for label Str at Arg
	OpClearTry Opcode = 0x81 // Remove innermost handler
	OpThrow    Opcode = 0x82 // Pop and throw

	// ========================================================================
	// I/O and host (0x90-0x9F)
	// ========================================================================

	OpPrint Opcode = 0x90 // Pop and print, in color Str if set
	OpRead  Opcode = 0x91 // Read a line and push it
	OpExit  Opcode = 0x92 // Halt successfully
	OpSleep Opcode = 0x93 // Pop milliseconds and sleep; push null
	OpDebug Opcode = 0x94 // Pop and write to the diagnostic stream
	OpTrace Opcode = 0x95 // Pop and log at trace level
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name      string // Human-readable name
	StackPop  int    // How many values popped from stack (-1 = variable)
	StackPush int    // How many values pushed to stack
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:  {"NOP", 0, 0},
	OpPop:  {"POP", 1, 0},
	OpDup:  {"DUP", 1, 2},
	OpSwap: {"SWAP", 2, 2},

	OpPushNumber: {"PUSH_NUM", 0, 1},
	OpPushString: {"PUSH_STR", 0, 1},
	OpPushBool:   {"PUSH_BOOL", 0, 1},
	OpPushNull:   {"PUSH_NULL", 0, 1},

	OpLoadVar:  {"LOAD_VAR", 0, 1},
	OpStoreVar: {"STORE_VAR", 1, 0},

	OpAdd:      {"ADD", 2, 1},
	OpSub:      {"SUB", 2, 1},
	OpMul:      {"MUL", 2, 1},
	OpDiv:      {"DIV", 2, 1},
	OpMod:      {"MOD", 2, 1},
	OpPow:      {"POW", 2, 1},
	OpFloorDiv: {"FLOOR_DIV", 2, 1},
	OpNeg:      {"NEG", 1, 1},

	OpEq:  {"EQ", 2, 1},
	OpNe:  {"NE", 2, 1},
	OpLt:  {"LT", 2, 1},
	OpLe:  {"LE", 2, 1},
	OpGt:  {"GT", 2, 1},
	OpGe:  {"GE", 2, 1},
	OpAnd: {"AND", 2, 1},
	OpOr:  {"OR", 2, 1},
	OpNot: {"NOT", 1, 1},

	OpJump:        {"JUMP", 0, 0},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0},
	OpJumpIfTrue:  {"JUMP_IF_TRUE", 1, 0},
	OpLabel:       {"LABEL", 0, 0},

	OpDefineFunction: {"DEFINE_FUNCTION", 0, 0},
	OpCall:           {"CALL", -1, 1},
	OpReturn:         {"RETURN", 1, 1},
	OpLibCall:        {"LIB_CALL", -1, 1},

	OpMakeArray: {"MAKE_ARRAY", -1, 1},
	OpMakeMap:   {"MAKE_MAP", -1, 1},
	OpGetIndex:  {"GET_INDEX", 2, 1},
	OpSetIndex:  {"SET_INDEX", 3, 1},
	OpLen:       {"LEN", 1, 1},
	OpIterable:  {"ITERABLE", 1, 1},

	OpSetupTry: {"SETUP_TRY", 0, 0},
	OpClearTry: {"CLEAR_TRY", 0, 0},
	OpThrow:    {"THROW", 1, 0},

	OpPrint: {"PRINT", 1, 0},
	OpRead:  {"READ", 0, 1},
	OpExit:  {"EXIT", 0, 0},
	OpSleep: {"SLEEP", 1, 1},
	OpDebug: {"DEBUG", 1, 0},
	OpTrace: {"TRACE", 1, 0},
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

// IsJump reports whether the opcode's Arg is an instruction address.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpSetupTry, OpDefineFunction:
		return true
	}
	return false
}

// Instruction is one IR instruction. Which operand fields are meaningful
// depends on Op.
type Instruction struct {
	Op     Opcode   `cbor:"1,keyasint"`
	Arg    int      `cbor:"2,keyasint,omitempty"` // jump target, count or bool
	Num    float64  `cbor:"3,keyasint,omitempty"` // number constant
	Str    string   `cbor:"4,keyasint,omitempty"` // string constant, variable, label or library
	Name   string   `cbor:"5,keyasint,omitempty"` // qualified function name
	Params []string `cbor:"6,keyasint,omitempty"` // function parameters
	Line   int      `cbor:"7,keyasint,omitempty"` // source line
}

// String renders the instruction for listings and traces.
func (in Instruction) String() string {
	name := in.Op.String()
	switch in.Op {
	case OpPushNumber:
		return name + " " + strconv.FormatFloat(in.Num, 'f', -1, 64)
	case OpPushString:
		return name + " " + strconv.Quote(in.Str)
	case OpPushBool:
		return fmt.Sprintf("%s %t", name, in.Arg != 0)
	case OpLoadVar, OpStoreVar, OpLabel:
		return name + " " + in.Str
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return fmt.Sprintf("%s %04d", name, in.Arg)
	case OpDefineFunction:
		return fmt.Sprintf("%s %s(%s) @%04d", name, in.Str, strings.Join(in.Params, ", "), in.Arg)
	case OpCall:
		return fmt.Sprintf("%s %s/%d", name, in.Str, in.Arg)
	case OpLibCall:
		return fmt.Sprintf("%s %s %s/%d", name, in.Str, in.Name, in.Arg)
	case OpMakeArray, OpMakeMap:
		return fmt.Sprintf("%s %d", name, in.Arg)
	case OpSetupTry:
		return fmt.Sprintf("%s %s @%04d", name, in.Str, in.Arg)
	case OpPrint:
		if in.Str != "" {
			return name + " " + in.Str
		}
	}
	return name
}
