package vm

import (
	"fmt"
	"sort"
	"strings"
)

// Program is a compiled IR sequence together with its resolved label table.
type Program struct {
	Instructions []Instruction  `cbor:"1,keyasint"`
	Labels       map[string]int `cbor:"2,keyasint,omitempty"` // label -> address
	Functions    map[string]int `cbor:"3,keyasint,omitempty"` // function -> entry address
	Libraries    []string       `cbor:"4,keyasint,omitempty"` // libraries required by lib statements
	DocType      string         `cbor:"5,keyasint,omitempty"`
	Name         string         `cbor:"6,keyasint,omitempty"`
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Label returns the resolved address of a label.
func (p *Program) Label(name string) (int, bool) {
	addr, ok := p.Labels[name]
	return addr, ok
}

// Validate checks that every jump and handler address is in range and that
// every label-carrying instruction agrees with the label table.
func (p *Program) Validate() error {
	n := len(p.Instructions)
	for i, in := range p.Instructions {
		if in.Op.IsJump() && (in.Arg < 0 || in.Arg > n) {
			return fmt.Errorf("instruction %04d: %s target %d out of range", i, in.Op, in.Arg)
		}
		// Jumps may land one past the end to finish the program; function
		// entries and handlers must hold code.
		if (in.Op == OpDefineFunction || in.Op == OpSetupTry) && in.Arg == n {
			return fmt.Errorf("instruction %04d: %s target %d is past the last instruction", i, in.Op, in.Arg)
		}
		if in.Op == OpSetupTry {
			addr, ok := p.Labels[in.Str]
			if !ok {
				return fmt.Errorf("instruction %04d: unknown label %q", i, in.Str)
			}
			if addr != in.Arg {
				return fmt.Errorf("instruction %04d: label %q resolves to %d, instruction says %d", i, in.Str, addr, in.Arg)
			}
		}
		if _, ok := opcodeInfoTable[in.Op]; !ok {
			return fmt.Errorf("instruction %04d: unknown opcode 0x%02X", i, byte(in.Op))
		}
	}
	return nil
}

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	if p.Name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", p.Name))
	}
	sb.WriteString(fmt.Sprintf("; %d instructions\n", len(p.Instructions)))
	if p.DocType != "" {
		sb.WriteString(fmt.Sprintf("; Type: %s\n", p.DocType))
	}
	if len(p.Libraries) > 0 {
		sb.WriteString(fmt.Sprintf("; Libraries: %s\n", strings.Join(p.Libraries, ", ")))
	}
	if len(p.Functions) > 0 {
		names := make([]string, 0, len(p.Functions))
		for name := range p.Functions {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString("; Functions:\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf(";   %-20s @%04d\n", name, p.Functions[name]))
		}
	}
	sb.WriteString("\n")

	for i, in := range p.Instructions {
		if in.Op == OpLabel {
			sb.WriteString(fmt.Sprintf("%s:\n", in.Str))
			continue
		}
		sb.WriteString(fmt.Sprintf("%04d  %s\n", i, in))
	}
	return sb.String()
}
