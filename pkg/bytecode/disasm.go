package bytecode

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembler for debugging and tooling
// ---------------------------------------------------------------------------

// Disassemble renders a whole program as text, one function per section.
func Disassemble(p *Program) string {
	var sb strings.Builder
	for i, fn := range p.Functions {
		fmt.Fprintf(&sb, "== %s (#%d, params=%d, locals=%d) ==\n", fn.Name, i, fn.ParamCount, fn.LocalCount)
		sb.WriteString(DisassembleChunk(fn.Chunk))
	}
	return sb.String()
}

// DisassembleChunk renders one chunk, one instruction per line.
func DisassembleChunk(c *Chunk) string {
	var sb strings.Builder
	ip := 0
	for ip < len(c.Code) {
		ip = disassembleInstruction(&sb, c, ip)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, c *Chunk, ip int) int {
	op := Opcode(c.Code[ip])
	info := GetOpcodeInfo(op)

	fmt.Fprintf(sb, "%04d  %-14s", ip, info.Name)

	next := ip + 1
	switch info.OperandLen {
	case 0:

	case 1:
		if next < len(c.Code) {
			fmt.Fprintf(sb, " %d", c.Code[next])
		}
		next++

	case 2:
		if next+1 < len(c.Code) {
			operand := uint16(c.Code[next])<<8 | uint16(c.Code[next+1])
			if op.IsJump() {
				delta := int(int16(operand))
				fmt.Fprintf(sb, " %+d (-> %04d)", delta, next+2+delta)
			} else if op == OpConst || op == OpLoadGlobal || op == OpStoreGlobal || op == OpMember || op == OpSetMember {
				fmt.Fprintf(sb, " %d", operand)
				if int(operand) < len(c.Constants) {
					fmt.Fprintf(sb, " (%v)", c.Constants[operand])
				}
			} else {
				fmt.Fprintf(sb, " %d", operand)
			}
		}
		next += 2

	case 3:
		if next+2 < len(c.Code) {
			a := uint16(c.Code[next])<<8 | uint16(c.Code[next+1])
			argc := c.Code[next+2]
			fmt.Fprintf(sb, " %d argc=%d", a, argc)
			if op == OpCallMethod && int(a) < len(c.Constants) {
				fmt.Fprintf(sb, " (%v)", c.Constants[a])
			}
		}
		next += 3
	}

	sb.WriteByte('\n')
	return next
}
