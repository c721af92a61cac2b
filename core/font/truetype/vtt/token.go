package vtt

import (
	"fmt"
	"strconv"
	"strings"
)

// StackItem is an operand of a VTT instruction. It is either a Literal,
// which is pushed verbatim, or a JumpRef, which names a jump variable whose
// value is a relative byte offset known only after assembly.
type StackItem interface {
	fmt.Stringer
	isStackItem()
}

// Literal is an integer operand.
type Literal int

// JumpRef is a reference to a jump variable.
type JumpRef string

func (Literal) isStackItem() {}
func (JumpRef) isStackItem() {}

func (l Literal) String() string { return strconv.Itoa(int(l)) }
func (j JumpRef) String() string { return string(j) }

// Delta is a single delta exception: move Point by Step/8 pixels at
// RelPPEM pixels per em.
type Delta struct {
	Point   int
	RelPPEM int
	Step    int
}

// Assignment binds a jump variable to a label, as in
//
//	JMPR[], (offset = #LABEL)
type Assignment struct {
	Variable string
	Label    string
}

// Token is a single unit of VTT assembly: an instruction, a pragma
// (#PUSH, #BEGIN, …) or a label definition (#LABEL:).
type Token struct {
	Mnemonic string      // instruction mnemonic, pragma name or label, e.g. "MIRP", "#PUSH", "#L1:"
	Flags    string      // flag bits as binary digits
	Items    []StackItem // operands following the instruction
	Deltas   []Delta     // delta exceptions given in brackets
	Assign   *Assignment // jump variable assignment of JMPR/JROT/JROF
	Line     int         // position in the source text, 1-based
	Col      int
}

// IsLabel is true for label definitions like "#L1:".
func (t Token) IsLabel() bool {
	return strings.HasPrefix(t.Mnemonic, "#") && strings.HasSuffix(t.Mnemonic, ":")
}

// IsPragma is true for assembler directives like "#PUSHOFF".
func (t Token) IsPragma() bool {
	return strings.HasPrefix(t.Mnemonic, "#") && !t.IsLabel()
}

// IsDelta is true for the delta exception instructions and their
// VTT shorthands DLTP/DLTC.
func (t Token) IsDelta() bool {
	for _, prefix := range []string{"DLTC", "DLTP", "DELTAP", "DELTAC"} {
		if strings.HasPrefix(t.Mnemonic, prefix) {
			return true
		}
	}
	return false
}

func isJumpInstruction(mnemonic string) bool {
	return mnemonic == "JMPR" || mnemonic == "JROT" || mnemonic == "JROF"
}

// String returns the VTT notation of a token.
func (t Token) String() string {
	var b strings.Builder
	b.WriteString(t.Mnemonic)
	if t.IsLabel() || t.IsPragma() {
		writeItems(&b, t.Items)
		return b.String()
	}
	b.WriteByte('[')
	b.WriteString(t.Flags)
	for _, d := range t.Deltas {
		fmt.Fprintf(&b, "(%d @%d %d)", d.Point, d.RelPPEM, d.Step)
	}
	b.WriteByte(']')
	if t.Assign != nil {
		fmt.Fprintf(&b, ", (%s = %s)", t.Assign.Variable, t.Assign.Label)
		return b.String()
	}
	writeItems(&b, t.Items)
	return b.String()
}

func writeItems(b *strings.Builder, items []StackItem) {
	for _, item := range items {
		b.WriteString(", ")
		b.WriteString(item.String())
	}
}

// Canonicalize serializes tokens back to VTT assembly, one token per line.
// Flags are written as binary digits, which the tokenizer accepts as well,
// so tokenizing the result yields the same tokens again.
func Canonicalize(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}
