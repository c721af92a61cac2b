package vtt

import (
	"strings"

	"github.com/npillmayer/vttasm/core/font/truetype/ttasm"
)

// placeholder is pushed for jump variables which are not yet resolved.
const placeholder = -999

// Encoder renders rows as TrueType assembly and assembles them.
type Encoder struct{}

// Assembly renders rows as TrueType assembly, one row per line.
// Empty push groups are skipped.
func (Encoder) Assembly(rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if line := renderRow(r); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderRow(r Row) string {
	switch r := r.(type) {
	case *Instruction:
		return r.Mnemonic + "[" + r.Flags + "]"
	case *PushGroup:
		if len(r.Values) == 0 {
			return ""
		}
		var b strings.Builder
		switch {
		case !r.Wide:
			b.WriteString("PUSH[]")
		case len(r.Values) > 8:
			b.WriteString("NPUSHW[]")
		default:
			b.WriteString("PUSHW[]")
		}
		for _, v := range r.Values {
			b.WriteByte(' ')
			if lit, ok := v.(Literal); ok {
				b.WriteString(lit.String())
			} else {
				b.WriteString(Literal(placeholder).String())
			}
		}
		return b.String()
	}
	return ""
}

// EncodeSpan assembles a span of rows to byte-code.
func (enc Encoder) EncodeSpan(rows []Row) ([]byte, error) {
	return ttasm.Assemble(enc.Assembly(rows))
}

// Render assembles a complete row stream.
func (enc Encoder) Render(rows []Row) (*CompiledProgram, error) {
	return Compile(enc.Assembly(rows))
}

// CompiledProgram is TrueType byte-code together with the assembly it was
// produced from.
type CompiledProgram struct {
	Bytecode []byte
	Assembly string
}

// Compile assembles TrueType assembly text.
func Compile(assembly string) (*CompiledProgram, error) {
	code, err := ttasm.Assemble(assembly)
	if err != nil {
		return nil, err
	}
	return &CompiledProgram{Bytecode: code, Assembly: assembly}, nil
}

// Empty is true if the program contains no instructions.
func (p *CompiledProgram) Empty() bool {
	return p == nil || len(p.Bytecode) == 0
}

// Listing returns an indented disassembly of the byte-code.
func (p *CompiledProgram) Listing() (string, error) {
	if p.Empty() {
		return "", nil
	}
	lines, err := ttasm.Disassemble(p.Bytecode)
	if err != nil {
		return "", err
	}
	return ttasm.Format(lines), nil
}
