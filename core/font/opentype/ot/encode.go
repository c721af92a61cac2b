package ot

import (
	"math/bits"
	"sort"
)

// checkSumMagic is used to calculate 'head'.checkSumAdjustment.
const checkSumMagic = 0xB1B0AFBA

// Encode produces the binary representation of a font.
//
// Tables 'glyf' and 'loca' are generated from the glyphs, and the index
// format in table 'head' as well as the maximum size of glyph instructions in
// table 'maxp' are updated. VTT source tables get new index tables. Table
// records are sorted by tag, checksums are calculated.
func (otf *Font) Encode() ([]byte, error) {
	tables := make(map[Tag][]byte, len(otf.tables)+2)
	for tag, t := range otf.tables {
		tables[tag] = t.Binary()
	}
	head := otf.Table(T("head")).Self().AsHead()
	headData := append([]byte(nil), head.Binary()...)
	if g := otf.Table(T("glyf")); g != nil {
		glyf := g.Self().AsGlyf()
		var format uint16
		tables[T("glyf")], tables[T("loca")], format = glyf.encode()
		put16(headData[50:], format)
		maxp := otf.Table(T("maxp")).Self().AsMaxP()
		if maxp.Version == 0x00010000 {
			maxpData := append([]byte(nil), maxp.Binary()...)
			put16(maxpData[26:], uint16(glyf.maxSizeOfInstructions()))
			tables[T("maxp")] = maxpData
		}
	}
	for tag, indexTag := range tsiIndex {
		if src := otf.Sources(tag, false); src != nil {
			tables[indexTag], tables[tag] = src.encode(otf.NumGlyphs())
		}
	}
	put32(headData[8:], 0) // checkSumAdjustment
	tables[T("head")] = headData
	//
	tags := make([]Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	n := len(tags)
	entrySelector := bits.Len(uint(n)) - 1
	searchRange := 16 << entrySelector
	out := make([]byte, 12+16*n)
	put32(out, otf.Header.FontType)
	put16(out[4:], uint16(n))
	put16(out[6:], uint16(searchRange))
	put16(out[8:], uint16(entrySelector))
	put16(out[10:], uint16(16*n-searchRange))
	var headOffset int
	for i, tag := range tags {
		data := tables[tag]
		rec := out[12+16*i:]
		put32(rec, uint32(tag))
		put32(rec[4:], checksum(data))
		put32(rec[8:], uint32(len(out)))
		put32(rec[12:], uint32(len(data)))
		if tag == T("head") {
			headOffset = len(out)
		}
		out = pad4(append(out, data...))
	}
	put32(out[headOffset+8:], checkSumMagic-checksum(out))
	tracer().Debugf("encoded font with %d tables in %d bytes", n, len(out))
	return out, nil
}
