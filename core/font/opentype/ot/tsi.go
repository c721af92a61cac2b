package ot

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// VTT keeps its sources in private tables, each of which comes with an index
// table: 'TSI0' indexes 'TSI1' (glyph programs, pre-program, control values and
// font program), 'TSI2' indexes 'TSI3' (VTTTalk sources).
//
// An index table holds one entry (glyphID uint16, textLength uint16,
// textOffset uint32) per glyph, followed by a magic entry and 4 entries for
// programs which do not belong to a glyph. A text length of 0x8000 marks long
// texts, whose length is calculated from the offset of the next entry.

const (
	tsiMagicID     = 0xFFFE
	tsiMagicOffset = 0xABFC1F34
	tsiLongText    = 0x8000
	tsiExtraCount  = 4
)

var tsiIndex = map[Tag]Tag{
	T("TSI1"): T("TSI0"),
	T("TSI3"): T("TSI2"),
}

var tsiExtras = map[Tag]map[uint16]string{
	T("TSI1"): {0xFFFA: "ppgm", 0xFFFB: "cvt", 0xFFFC: "reserved", 0xFFFD: "fpgm"},
	T("TSI3"): {0xFFFA: "reserved0", 0xFFFB: "reserved1", 0xFFFC: "reserved2", 0xFFFD: "reserved3"},
}

// VTTTables lists the tables VTT uses to store its sources and project data.
var VTTTables = []string{"TSI0", "TSI1", "TSI2", "TSI3", "TSI5", "TSIC"}

// SourceTable holds the VTT sources of table 'TSI1' or 'TSI3'. Texts are
// stored as found in the font, i.e. usually with '\r' line endings.
type SourceTable struct {
	tableBase
	glyphs map[GlyphIndex]string
	extras map[string]string
}

func newSourceTable(tag Tag, b binarySegm, offset, size uint32) *SourceTable {
	t := &SourceTable{
		glyphs: make(map[GlyphIndex]string),
		extras: make(map[string]string),
	}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

// Glyph returns the source for glyph gid.
func (t *SourceTable) Glyph(gid GlyphIndex) (string, bool) {
	text, ok := t.glyphs[gid]
	return text, ok
}

// SetGlyph sets the source for glyph gid. An empty text removes the source.
func (t *SourceTable) SetGlyph(gid GlyphIndex, text string) {
	if text == "" {
		delete(t.glyphs, gid)
		return
	}
	t.glyphs[gid] = text
}

// GlyphIndexes returns the glyphs which have a source, in ascending order.
func (t *SourceTable) GlyphIndexes() []GlyphIndex {
	gids := make([]GlyphIndex, 0, len(t.glyphs))
	for gid := range t.glyphs {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

// Extra returns the source of a program not belonging to a glyph.
// For 'TSI1', name is one of "ppgm", "cvt" or "fpgm".
func (t *SourceTable) Extra(name string) (string, bool) {
	text, ok := t.extras[name]
	return text, ok
}

// SetExtra sets the source of a program not belonging to a glyph.
// An empty text removes the source.
func (t *SourceTable) SetExtra(name, text string) error {
	found := false
	for _, n := range tsiExtras[t.name] {
		found = found || n == name
	}
	if !found {
		return errFontFormat("no extra program " + name + " in table " + t.name.String())
	}
	if text == "" {
		delete(t.extras, name)
		return nil
	}
	t.extras[name] = text
	return nil
}

// ClearExtras removes all sources not belonging to a glyph.
func (t *SourceTable) ClearExtras() {
	t.extras = make(map[string]string)
}

// Sources returns the VTT source table for tag 'TSI1' or 'TSI3'. If create
// is set, a missing table is created.
func (otf *Font) Sources(tag Tag, create bool) *SourceTable {
	if t := otf.Table(tag); t != nil {
		return t.Self().AsSources()
	}
	if _, ok := tsiIndex[tag]; !ok || !create {
		return nil
	}
	t := newSourceTable(tag, nil, 0, 0)
	otf.tables[tag] = t
	return t
}

// --- Parsing ---------------------------------------------------------------

type tsiEntry struct {
	glyphID uint16
	length  int
	offset  int
}

// parseSources interprets a VTT source table, given its index table.
func parseSources(otf *Font, tag Tag) error {
	data := otf.tables[tag]
	if data == nil {
		return nil
	}
	index := otf.tables[tsiIndex[tag]]
	if index == nil {
		return errFontFormat("table " + tag.String() + " without index table")
	}
	entries, err := parseSourceIndex(index.Binary())
	if err != nil {
		return err
	}
	off, size := data.Extent()
	t := newSourceTable(tag, data.Binary(), off, size)
	n := len(entries) - tsiExtraCount - 1
	normal, extra := entries[:n], entries[n+1:]
	decoder := unicode.UTF8.NewDecoder()
	for i, e := range entries {
		if i == n {
			continue // magic
		}
		length := e.length
		if length == tsiLongText {
			next := len(t.data)
			if i+1 < n {
				next = normal[i+1].offset
			} else if i == n-1 {
				next = extra[0].offset
			} else if i+1 < len(entries) {
				next = entries[i+1].offset
			}
			length = next - e.offset
		}
		raw, err := t.data.view(e.offset, length)
		if err != nil {
			tracer().Infof("WARNING: %s entry for 0x%04x exceeds table size", tag, e.glyphID)
			continue
		}
		if !utf8.Valid(raw) {
			return errFontFormat("text encoding of " + tag.String())
		}
		text, err := decoder.Bytes(raw)
		if err != nil {
			return errFontFormat("text encoding of " + tag.String())
		}
		if len(text) == 0 {
			continue
		}
		if i < n {
			t.glyphs[GlyphIndex(e.glyphID)] = string(text)
		} else if name, ok := tsiExtras[tag][e.glyphID]; ok {
			t.extras[name] = string(text)
		}
	}
	tracer().Debugf("table %s contains %d glyph sources and %d extra sources", tag, len(t.glyphs), len(t.extras))
	otf.tables[tag] = t
	return nil
}

func parseSourceIndex(b binarySegm) ([]tsiEntry, error) {
	if len(b)%8 != 0 || len(b) < 8*(tsiExtraCount+1) {
		return nil, errFontFormat("size of VTT index table")
	}
	entries := make([]tsiEntry, len(b)/8)
	for i := range entries {
		e := b[8*i:]
		entries[i] = tsiEntry{glyphID: u16(e), length: int(u16(e[2:])), offset: int(u32(e[4:]))}
		if entries[i].length > tsiLongText {
			return nil, errFontFormat("text length in VTT index table")
		}
	}
	magic := entries[len(entries)-tsiExtraCount-1]
	if magic.glyphID != tsiMagicID || magic.offset != tsiMagicOffset {
		return nil, errFontFormat("bad magic number in VTT index table")
	}
	return entries, nil
}

// --- Encoding --------------------------------------------------------------

// encode produces the index table and the source table for numGlyphs glyphs.
func (t *SourceTable) encode(numGlyphs int) (index, data []byte) {
	add := func(id uint16, text string) {
		if len(data)%2 != 0 {
			data = append(data, '\r') // align on 2-byte boundaries
		}
		length := len(text)
		if length >= tsiLongText {
			length = tsiLongText
		}
		index = append16(index, id)
		index = append16(index, uint16(length))
		index = append32(index, uint32(len(data)))
		data = append(data, text...)
	}
	for gid := 0; gid < numGlyphs; gid++ {
		add(uint16(gid), t.glyphs[GlyphIndex(gid)])
	}
	index = append16(index, tsiMagicID)
	index = append16(index, 0)
	index = append32(index, tsiMagicOffset)
	codes := make([]int, 0, tsiExtraCount)
	for code := range tsiExtras[t.name] {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	for _, code := range codes {
		add(uint16(code), t.extras[tsiExtras[t.name][uint16(code)]])
	}
	return index, data
}
