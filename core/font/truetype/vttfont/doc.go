/*
Package vttfont connects TrueType fonts to the VTT compiler.

Type Font implements vtt.Font on top of package ot: VTT sources are read
from and written to the 'TSI1' and 'TSI3' tables, compiled programs are
installed into tables 'fpgm', 'prep', 'cvt ' and into the glyph outlines.
Glyphs are named by the glyph order of package font.

VTT stores texts with '\r' line endings; Font converts them to '\n' and back.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package vttfont

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'vtt.fonts'
func tracer() tracing.Trace {
	return tracing.Select("vtt.fonts")
}
