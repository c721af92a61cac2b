package ttasm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	commentRE     = regexp.MustCompile(`(?s)/\*.*?\*/`)
	instructionRE = regexp.MustCompile(`^([A-Z][A-Z0-9]*)\[([01]*)\]$`)
)

// word is a single whitespace separated unit of assembly.
type word struct {
	text     string
	mnemonic string
	bits     string
	value    int
	isNumber bool
}

func scan(asm string) ([]word, error) {
	asm = commentRE.ReplaceAllString(asm, " ")
	fields := strings.Fields(asm)
	words := make([]word, 0, len(fields))
	for _, f := range fields {
		if m := instructionRE.FindStringSubmatch(f); m != nil {
			words = append(words, word{text: f, mnemonic: m[1], bits: m[2]})
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errAssembly("cannot read %q", f)
		}
		words = append(words, word{text: f, value: n, isNumber: true})
	}
	return words, nil
}

// Assemble translates TrueType assembly into byte-code.
//
// Instructions are written as MNEMONIC[bits], where the number of flag bits
// has to match the instruction. Push instructions are followed by their
// values. The generic PUSH[] selects the most compact encoding, while
// PUSHB[], PUSHW[], NPUSHB[] and NPUSHW[] are encoded as written.
func Assemble(asm string) ([]byte, error) {
	words, err := scan(asm)
	if err != nil {
		return nil, err
	}
	code := make([]byte, 0, len(words))
	for i := 0; i < len(words); {
		w := words[i]
		i++
		if w.isNumber {
			return nil, errAssembly("value %d without push instruction", w.value)
		}
		var args []int
		for i < len(words) && words[i].isNumber {
			args = append(args, words[i].value)
			i++
		}
		if code, err = assembleInstruction(code, w, args); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("assembled %d words into %d bytes", len(words), len(code))
	return code, nil
}

func assembleInstruction(code []byte, w word, args []int) ([]byte, error) {
	if w.mnemonic == "PUSH" {
		if w.bits != "" {
			return nil, errAssembly("PUSH takes no flags: %s", w.text)
		}
		if len(args) == 0 {
			return nil, errAssembly("PUSH without values")
		}
		return appendPush(code, args)
	}
	op, ok := Lookup(w.mnemonic)
	if !ok {
		return nil, unknownMnemonic(w.mnemonic)
	}
	if op.IsPush() {
		if w.bits != "" {
			return nil, errAssembly("%s takes no flags, count is implied by values", w.text)
		}
		return appendExplicitPush(code, op, args)
	}
	if len(args) > 0 {
		return nil, errAssembly("%s takes no inline values, found %d", w.text, len(args))
	}
	if len(w.bits) != op.ArgBits {
		return nil, errAssembly("%s expects %d flag bits, found %d", w.mnemonic, op.ArgBits, len(w.bits))
	}
	flags := 0
	if w.bits != "" {
		n, err := strconv.ParseUint(w.bits, 2, 8)
		if err != nil {
			return nil, errAssembly("malformed flags in %s", w.text)
		}
		flags = int(n)
	}
	return append(code, op.Code+byte(flags)), nil
}

func unknownMnemonic(mnemonic string) error {
	prefix := mnemonic
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if candidates := Complete(prefix); len(candidates) > 0 {
		return errAssembly("unknown instruction %s (did you mean %s?)", mnemonic,
			strings.Join(candidates, ", "))
	}
	return errAssembly("unknown instruction %s", mnemonic)
}

func isByte(v int) bool {
	return v >= 0 && v <= 255
}

func isWord(v int) bool {
	return v >= -32768 && v <= 32767
}

// appendPush encodes values with the shortest sequence of push instructions.
// Runs of byte-sized values are pushed with PUSHB/NPUSHB, everything else
// with PUSHW/NPUSHW. A byte run shorter than 2 inside a word run is not worth
// a separate instruction and is pushed as words.
func appendPush(code []byte, args []int) ([]byte, error) {
	for _, v := range args {
		if !isWord(v) {
			return nil, errAssembly("push value out of range: %d", v)
		}
	}
	nWords := 0
	for len(args) > 0 {
		for nWords < len(args) && nWords < 255 && !isByte(args[nWords]) {
			nWords++
		}
		nBytes := 0
		for nWords+nBytes < len(args) && nBytes < 255 && isByte(args[nWords+nBytes]) {
			nBytes++
		}
		if nBytes < 2 && nWords+nBytes < 255 && nWords+nBytes != len(args) {
			nWords += nBytes
			continue
		}
		if nWords > 0 {
			code = appendWords(code, args[:nWords])
		}
		if nBytes > 0 {
			code = appendBytes(code, args[nWords:nWords+nBytes])
		}
		args = args[nWords+nBytes:]
		nWords = 0
	}
	return code, nil
}

func appendWords(code []byte, values []int) []byte {
	if n := len(values); n <= 8 {
		code = append(code, mnemonicDict["PUSHW"].Code+byte(n-1))
	} else {
		code = append(code, mnemonicDict["NPUSHW"].Code, byte(n))
	}
	for _, v := range values {
		code = append(code, byte(v>>8), byte(v))
	}
	return code
}

func appendBytes(code []byte, values []int) []byte {
	if n := len(values); n <= 8 {
		code = append(code, mnemonicDict["PUSHB"].Code+byte(n-1))
	} else {
		code = append(code, mnemonicDict["NPUSHB"].Code, byte(n))
	}
	for _, v := range values {
		code = append(code, byte(v))
	}
	return code
}

func appendExplicitPush(code []byte, op Opcode, args []int) ([]byte, error) {
	n := len(args)
	wide := op.Mnemonic == "PUSHW" || op.Mnemonic == "NPUSHW"
	for _, v := range args {
		if wide && !isWord(v) || !wide && !isByte(v) {
			return nil, errAssembly("%s value out of range: %d", op.Mnemonic, v)
		}
	}
	switch op.Mnemonic {
	case "PUSHB", "PUSHW":
		if n < 1 || n > 8 {
			return nil, errAssembly("%s pushes 1 to 8 values, found %d", op.Mnemonic, n)
		}
		code = append(code, op.Code+byte(n-1))
	default:
		if n > 255 {
			return nil, errAssembly("%s pushes at most 255 values, found %d", op.Mnemonic, n)
		}
		code = append(code, op.Code, byte(n))
	}
	for _, v := range args {
		if wide {
			code = append(code, byte(v>>8), byte(v))
		} else {
			code = append(code, byte(v))
		}
	}
	return code, nil
}

// Size returns the number of bytes the assembly will occupy as byte-code.
func Size(asm string) (int, error) {
	code, err := Assemble(asm)
	if err != nil {
		return 0, err
	}
	return len(code), nil
}

// Notation returns the assembly notation of an instruction with the given
// flags, e.g. "MIRP[10110]".
func (op Opcode) Notation(flags byte) string {
	if op.ArgBits == 0 {
		return op.Mnemonic + "[]"
	}
	return fmt.Sprintf("%s[%0*b]", op.Mnemonic, op.ArgBits, flags)
}
