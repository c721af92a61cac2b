/*
Package ot reads and writes the tables of TrueType fonts which are involved in
hinting.

Package ot is not a general purpose font library. It interprets only the tables
needed to install compiled TrueType instructions into a font and to access the
sources of Microsoft's Visual TrueType (VTT):

▪︎ 'head', 'maxp' and 'loca' for the structure of the font

▪︎ 'glyf' for glyph outlines, where composite glyphs are broken up into their
component records and each glyph's instructions are made accessible

▪︎ 'TSI0'–'TSI3', the private tables where VTT stores its sources

Every other table is kept as a generic table and written back unchanged.
Clients may replace tables (e.g., 'fpgm' or 'cvt ') as a whole.

Font.Encode produces a new font binary. The glyph data and the glyph locations
are re-generated, as are the VTT index tables, and the table checksums and
the font checksum are re-calculated.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/vttasm/core"
)

// Valuable resource:
// https://docs.microsoft.com/en-us/typography/opentype/spec/

// tracer writes to trace with key 'vtt.fonts'
func tracer() tracing.Trace {
	return tracing.Select("vtt.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "TrueType font format: %s", x)
}
