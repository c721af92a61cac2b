package ttasm

import (
	"strconv"
	"strings"
)

// Disassemble translates byte-code into assembly, one line per instruction.
// Push instructions are listed with their values on the same line.
func Disassemble(code []byte) ([]string, error) {
	var lines []string
	for pc := 0; pc < len(code); {
		op, ok := Decode(code[pc])
		if !ok {
			return lines, errAssembly("undefined opcode 0x%02X at offset %d", code[pc], pc)
		}
		if !op.IsPush() {
			lines = append(lines, op.Notation(code[pc]-op.Code))
			pc++
			continue
		}
		start := pc
		var n, size int
		switch op.Mnemonic {
		case "NPUSHB", "NPUSHW":
			if pc+1 >= len(code) {
				return lines, errAssembly("truncated %s at offset %d", op.Mnemonic, start)
			}
			n = int(code[pc+1])
			pc += 2
		default:
			n = int(code[pc]-op.Code) + 1
			pc++
		}
		size = 1
		if op.Mnemonic == "PUSHW" || op.Mnemonic == "NPUSHW" {
			size = 2
		}
		if pc+n*size > len(code) {
			return lines, errAssembly("truncated %s at offset %d", op.Mnemonic, start)
		}
		var b strings.Builder
		b.WriteString(op.Mnemonic)
		b.WriteString("[]")
		for i := 0; i < n; i++ {
			var v int
			if size == 2 {
				v = int(int16(uint16(code[pc])<<8 | uint16(code[pc+1])))
			} else {
				v = int(code[pc])
			}
			pc += size
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(v))
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}

const valuesPerLine = 25

// Format produces an indented listing of disassembled instructions.
// Function definitions and conditional blocks are indented, long push
// value lists are wrapped.
func Format(lines []string) string {
	var b strings.Builder
	indent := 0
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		mnemonic := fields[0]
		if i := strings.IndexByte(mnemonic, '['); i >= 0 {
			mnemonic = mnemonic[:i]
		}
		switch mnemonic {
		case "ELSE", "ENDF", "EIF":
			if indent > 0 {
				indent--
			}
		}
		pad := strings.Repeat("  ", indent)
		b.WriteString(pad)
		b.WriteString(fields[0])
		b.WriteByte('\n')
		for values := fields[1:]; len(values) > 0; {
			n := len(values)
			if n > valuesPerLine {
				n = valuesPerLine
			}
			b.WriteString(pad)
			b.WriteString(strings.Join(values[:n], " "))
			b.WriteByte('\n')
			values = values[n:]
		}
		switch mnemonic {
		case "FDEF", "IDEF", "IF", "ELSE":
			indent++
		}
	}
	return b.String()
}
