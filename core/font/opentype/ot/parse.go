package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses a TrueType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	r := bytes.NewReader(font)
	h := FontHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, errFontFormat("font header")
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{Header: &h, tables: make(map[Tag]Table)}
	src := binarySegm(font)
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // ignore checksums, but "all tables must begin on four byte boundries".
			return nil, errFontFormat("invalid table offset")
		}
		data, err := src.view(int(off), int(size))
		if err != nil {
			return nil, errFontFormat("table " + tag.String() + " exceeds font size")
		}
		otf.tables[tag], err = parseTable(tag, data, off, size)
		if err != nil {
			return nil, err
		}
	}
	if err := extractHintingInfo(otf); err != nil {
		return nil, err
	}
	return otf, nil
}

// According to the OpenType spec, the following tables are
// required for the font to function correctly.
// We check for the ones we need to interpret glyph data.
var RequiredTables = []string{
	"head", "maxp",
}

// Consistency check and interpretation of tables which depend on other tables.
func extractHintingInfo(otf *Font) error {
	for _, tag := range RequiredTables {
		h := otf.tables[T(tag)]
		if h == nil {
			return errFontFormat("missing required table " + tag)
		}
	}
	head := otf.Table(T("head")).Self().AsHead()
	maxp := otf.Table(T("maxp")).Self().AsMaxP()
	if lo := otf.Table(T("loca")); lo != nil {
		loca := lo.Self().AsLoca()
		if head.IndexToLocFormat == 1 {
			loca.inx2loc = longLocaVersion
		}
		loca.locCnt = maxp.NumGlyphs + 1
	}
	if err := parseGlyphs(otf); err != nil {
		return err
	}
	for _, tag := range []string{"TSI1", "TSI3"} {
		if err := parseSources(otf, T(tag)); err != nil {
			return err
		}
	}
	return nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("glyf"):
		return newGlyfTable(t, b, offset, size), nil // glyphs are parsed after 'loca'
	case T("loca"):
		return newLocaTable(t, b, offset, size), nil
	case T("maxp"):
		return parseMaxP(t, b, offset, size)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	t := newHeadTable(tag, b, offset, size)
	t.Flags, _ = b.u16(16)      // flags
	t.UnitsPerEm, _ = b.u16(18) // units per em
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	return t, nil
}

// --- MaxP table ------------------------------------------------------------

// This table establishes the memory requirements for this font. Fonts with CFF data
// must use Version 0.5 of this table, specifying only the numGlyphs field. Fonts
// with TrueType outlines must use Version 1.0 of this table, where all data is required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat("size of maxp table")
	}
	t := newMaxPTable(tag, b, offset, size)
	t.Version, _ = b.u32(0)
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	if t.Version == 0x00010000 {
		if size < 32 {
			return nil, errFontFormat("size of maxp table")
		}
		n, _ = b.u16(26)
		t.MaxSizeOfInstructions = int(n)
	}
	return t, nil
}

// --- Glyf table ------------------------------------------------------------

// parseGlyphs splits the glyph data into glyphs, using the glyph locations of
// table 'loca'.
func parseGlyphs(otf *Font) error {
	g := otf.Table(T("glyf"))
	if g == nil {
		return nil
	}
	glyf := g.Self().AsGlyf()
	lo := otf.Table(T("loca"))
	if lo == nil {
		return errFontFormat("glyf table without loca table")
	}
	loca := lo.Self().AsLoca()
	n := otf.NumGlyphs()
	entrySize := 2
	if otf.Table(T("head")).Self().AsHead().IndexToLocFormat == 1 {
		entrySize = 4
	}
	if len(loca.data) < (n+1)*entrySize {
		return errFontFormat("size of loca table")
	}
	glyf.Glyphs = make([]*Glyph, n)
	for gid := 0; gid < n; gid++ {
		from := loca.IndexToLocation(GlyphIndex(gid))
		to := loca.IndexToLocation(GlyphIndex(gid + 1))
		if to < from {
			return errFontFormat(fmt.Sprintf("location of glyph %d", gid))
		}
		data, err := glyf.data.view(int(from), int(to-from))
		if err != nil {
			return errFontFormat(fmt.Sprintf("glyph %d exceeds glyf table", gid))
		}
		if glyf.Glyphs[gid], err = parseGlyph(data); err != nil {
			tracer().Errorf("glyph %d: %v", gid, err)
			return err
		}
	}
	tracer().Debugf("parsed %d glyphs", n)
	return nil
}
