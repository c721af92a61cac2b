/*
Package ttasm assembles and disassembles TrueType instructions.

TrueType hinting programs (tables 'fpgm' and 'prep', and the instructions
attached to each glyph in table 'glyf') are byte-code for a stack machine.
This package translates between the byte-code and a textual assembly, where
each instruction is written as its mnemonic followed by its flag bits in
brackets, e.g.

	SVTCA[0]
	MIRP[10110]
	PUSH[] 3 17 -40

Values following a push instruction are pushed onto the stack. The generic
mnemonic PUSH lets the assembler choose the most compact encoding
(PUSHB, PUSHW, NPUSHB or NPUSHW), whereas the explicit push mnemonics are
encoded verbatim. Clients relying on a fixed byte size for pushed values
(e.g., for relative jump offsets which will be patched later) should use the
explicit word pushes.

Disassembly always produces explicit push mnemonics, so that

	Assemble(Join(Disassemble(code))) == code

holds for every well-formed program.

See https://docs.microsoft.com/en-us/typography/opentype/spec/tt_instructions
for the instruction set.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ttasm

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/vttasm/core"
)

// tracer traces with key 'vtt.asm'
func tracer() tracing.Trace {
	return tracing.Select("vtt.asm")
}

// errAssembly produces user level errors for malformed instruction assembly.
func errAssembly(format string, v ...interface{}) error {
	return core.Error(core.EINVALID, "TrueType assembly: "+format, v...)
}
