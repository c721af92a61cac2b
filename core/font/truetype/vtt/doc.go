/*
Package vtt compiles hinting programs written in the assembly dialect of
Microsoft's Visual TrueType (VTT) to TrueType byte-code.

VTT stores its sources in private tables of a font ('TSI1' for glyph
programs, the pre-program, the font program and the control values).
Compared to plain TrueType assembly, the VTT dialect has a couple of
conveniences:

▪︎ Operands are written after the instruction they belong to, e.g.
"SRP0[], 12". The assembler hoists all operands into a single push at the
start of the program, or of the enclosing #BEGIN/#END block. #PUSHOFF
turns this off, #PUSH pushes values at the current position.

▪︎ Relative jumps refer to labels: "#PUSH, dist" pushes a jump variable,
which is bound by "JMPR[], (dist = #L1)" to the label "#L1:". The
assembler replaces the variable by the byte offset between the jump and
the label.

▪︎ Delta exceptions are given as tuples, e.g. "DELTAP1[(21 @12 -8)]", which
are expanded into the operands of the delta instruction.

▪︎ OFFSET[], ANCHOR[], USEMYMETRICS[] and (UN)SCALEDCOMPONENTOFFSET[]
describe the components of a composite glyph. They do not produce
byte-code; instead, they are checked against the glyph outline and
determine the flags of the component records.

Compilation proceeds in stages, each of which is available separately:
Tokenize, BuildRows, ResolveJumps and Encoder. Transform and MakeProgram
combine them. CompileInstructions compiles every program of a font, given
an implementation of interface Font.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package vtt

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'vtt.asm'
func tracer() tracing.Trace {
	return tracing.Select("vtt.asm")
}
