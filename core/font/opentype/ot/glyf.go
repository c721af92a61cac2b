package ot

import "fmt"

// Flags of composite glyph component records.
// See https://docs.microsoft.com/en-us/typography/opentype/spec/glyf#composite-glyph-description
const (
	ArgsAreWords            uint16 = 0x0001
	ArgsAreXYValues         uint16 = 0x0002
	RoundXYToGrid           uint16 = 0x0004
	WeHaveAScale            uint16 = 0x0008
	MoreComponents          uint16 = 0x0020
	WeHaveAnXAndYScale      uint16 = 0x0040
	WeHaveATwoByTwo         uint16 = 0x0080
	WeHaveInstructions      uint16 = 0x0100
	UseMyMetrics            uint16 = 0x0200
	OverlapCompound         uint16 = 0x0400
	ScaledComponentOffset   uint16 = 0x0800
	UnscaledComponentOffset uint16 = 0x1000
)

// structural flags are maintained by the encoder
const structuralFlags = MoreComponents | WeHaveInstructions

// GlyfTable holds the outlines of the glyphs of a TrueType font, one
// Glyph per glyph index.
type GlyfTable struct {
	tableBase
	Glyphs []*Glyph
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
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

// Glyph returns the glyph for glyph index gid, or nil.
func (t *GlyfTable) Glyph(gid GlyphIndex) *Glyph {
	if int(gid) >= len(t.Glyphs) {
		return nil
	}
	return t.Glyphs[gid]
}

// SetGlyph replaces the description of glyph gid by the binary glyph
// description data. Empty data makes the glyph an empty glyph.
func (t *GlyfTable) SetGlyph(gid GlyphIndex, data []byte) error {
	if int(gid) >= len(t.Glyphs) {
		return errFontFormat(fmt.Sprintf("glyph index %d out of range", gid))
	}
	g, err := parseGlyph(binarySegm(append([]byte(nil), data...)))
	if err != nil {
		return err
	}
	t.Glyphs[gid] = g
	return nil
}

// Glyph is a glyph description of table 'glyf'. Simple glyphs keep their
// outline data opaque, composite glyphs are split into component records.
// Both have their instructions accessible.
//
// An empty glyph (e.g., 'space') has no outline and cannot carry instructions.
type Glyph struct {
	NumberOfContours int16       // negative for composite glyphs
	Components       []Component // composite glyphs only
	Instructions     []byte
	header           binarySegm // numberOfContours and bounding box
	endPts           binarySegm // simple glyphs: endPtsOfContours
	outline          binarySegm // simple glyphs: flags and coordinates
}

// IsEmpty is true for glyphs without outline.
func (g *Glyph) IsEmpty() bool {
	return len(g.header) == 0
}

// IsComposite is true for glyphs made of other glyphs.
func (g *Glyph) IsComposite() bool {
	return !g.IsEmpty() && g.NumberOfContours < 0
}

// Component is a component record of a composite glyph.
type Component struct {
	Flags      uint16
	GlyphIndex GlyphIndex
	Arg1, Arg2 int        // x and y offset, or point numbers if the component is anchored
	transform  binarySegm // scale or 2x2 matrix, kept verbatim
}

// Anchored is true if a component is positioned by matching points instead of
// by an offset.
func (c Component) Anchored() bool {
	return c.Flags&ArgsAreXYValues == 0
}

func (c Component) String() string {
	if c.Anchored() {
		return fmt.Sprintf("component{glyph=%d, anchor=%d/%d, flags=0x%04x}", c.GlyphIndex, c.Arg1, c.Arg2, c.Flags)
	}
	return fmt.Sprintf("component{glyph=%d, offset=%d/%d, flags=0x%04x}", c.GlyphIndex, c.Arg1, c.Arg2, c.Flags)
}

// --- Parsing ---------------------------------------------------------------

func parseGlyph(b binarySegm) (*Glyph, error) {
	if len(b) == 0 {
		return &Glyph{}, nil
	}
	if len(b) < 10 {
		return nil, errFontFormat("glyph header")
	}
	g := &Glyph{header: b[:10]}
	g.NumberOfContours = int16(u16(b))
	if g.NumberOfContours >= 0 {
		return parseSimpleGlyph(g, b)
	}
	return parseCompositeGlyph(g, b)
}

func parseSimpleGlyph(g *Glyph, b binarySegm) (*Glyph, error) {
	pos := 10 + 2*int(g.NumberOfContours)
	endPts, err := b.view(10, pos-10)
	if err != nil {
		return nil, errFontFormat("glyph contours")
	}
	g.endPts = endPts
	numPoints := 0
	if len(endPts) > 0 {
		numPoints = int(u16(endPts[len(endPts)-2:])) + 1
	}
	l, err := b.u16(pos)
	if err != nil {
		return nil, errFontFormat("glyph instructions")
	}
	if g.Instructions, err = b.view(pos+2, int(l)); err != nil {
		return nil, errFontFormat("glyph instructions")
	}
	pos += 2 + int(l)
	size, err := outlineSize(b[pos:], numPoints)
	if err != nil {
		return nil, errFontFormat("glyph outline")
	}
	g.outline = b[pos : pos+size]
	return g, nil
}

// outlineSize calculates the size of the flags and coordinates of a simple glyph.
func outlineSize(b binarySegm, numPoints int) (int, error) {
	const (
		xShort, yShort, repeat, xSame, ySame = 0x02, 0x04, 0x08, 0x10, 0x20
	)
	pos, coords := 0, 0
	for n := 0; n < numPoints; {
		if pos >= len(b) {
			return 0, errBufferBounds
		}
		flag := b[pos]
		pos++
		count := 1
		if flag&repeat != 0 {
			if pos >= len(b) {
				return 0, errBufferBounds
			}
			count += int(b[pos])
			pos++
		}
		if flag&xShort != 0 {
			coords += count
		} else if flag&xSame == 0 {
			coords += 2 * count
		}
		if flag&yShort != 0 {
			coords += count
		} else if flag&ySame == 0 {
			coords += 2 * count
		}
		n += count
	}
	if pos+coords > len(b) {
		return 0, errBufferBounds
	}
	return pos + coords, nil
}

func parseCompositeGlyph(g *Glyph, b binarySegm) (*Glyph, error) {
	pos := 10
	var flags uint16
	for {
		rec, err := b.view(pos, 4)
		if err != nil {
			return nil, errFontFormat("component record")
		}
		flags = u16(rec)
		c := Component{Flags: flags, GlyphIndex: GlyphIndex(u16(rec[2:]))}
		pos += 4
		if flags&ArgsAreWords != 0 {
			args, err := b.view(pos, 4)
			if err != nil {
				return nil, errFontFormat("component arguments")
			}
			if flags&ArgsAreXYValues != 0 {
				c.Arg1, c.Arg2 = int(int16(u16(args))), int(int16(u16(args[2:])))
			} else {
				c.Arg1, c.Arg2 = int(u16(args)), int(u16(args[2:]))
			}
			pos += 4
		} else {
			args, err := b.view(pos, 2)
			if err != nil {
				return nil, errFontFormat("component arguments")
			}
			if flags&ArgsAreXYValues != 0 {
				c.Arg1, c.Arg2 = int(int8(args[0])), int(int8(args[1]))
			} else {
				c.Arg1, c.Arg2 = int(args[0]), int(args[1])
			}
			pos += 2
		}
		n := 0
		switch {
		case flags&WeHaveAScale != 0:
			n = 2
		case flags&WeHaveAnXAndYScale != 0:
			n = 4
		case flags&WeHaveATwoByTwo != 0:
			n = 8
		}
		if c.transform, err = b.view(pos, n); err != nil {
			return nil, errFontFormat("component transformation")
		}
		pos += n
		g.Components = append(g.Components, c)
		if flags&MoreComponents == 0 {
			break
		}
	}
	if flags&WeHaveInstructions != 0 {
		l, err := b.u16(pos)
		if err != nil {
			return nil, errFontFormat("glyph instructions")
		}
		if g.Instructions, err = b.view(pos+2, int(l)); err != nil {
			return nil, errFontFormat("glyph instructions")
		}
	}
	return g, nil
}

// --- Encoding --------------------------------------------------------------

// encodeGlyph produces the binary glyph description for g. The flags
// MORE_COMPONENTS and WE_HAVE_INSTRUCTIONS are set as required, the latter
// on the last component only.
func encodeGlyph(g *Glyph) []byte {
	if g.IsEmpty() {
		return nil
	}
	b := append([]byte(nil), g.header...)
	if !g.IsComposite() {
		b = append(b, g.endPts...)
		b = append16(b, uint16(len(g.Instructions)))
		b = append(b, g.Instructions...)
		return append(b, g.outline...)
	}
	for i, c := range g.Components {
		flags := c.Flags &^ structuralFlags
		if i < len(g.Components)-1 {
			flags |= MoreComponents
		} else if len(g.Instructions) > 0 {
			flags |= WeHaveInstructions
		}
		b = append16(b, flags)
		b = append16(b, uint16(c.GlyphIndex))
		if flags&ArgsAreWords != 0 {
			b = append16(b, uint16(c.Arg1))
			b = append16(b, uint16(c.Arg2))
		} else {
			b = append(b, byte(c.Arg1), byte(c.Arg2))
		}
		b = append(b, c.transform...)
	}
	if len(g.Instructions) > 0 {
		b = append16(b, uint16(len(g.Instructions)))
		b = append(b, g.Instructions...)
	}
	return b
}

// encode produces the glyph data and the glyph locations, together with the
// format of the locations (0 for short offsets, 1 for long).
func (t *GlyfTable) encode() (glyf, loca []byte, format uint16) {
	locs := make([]uint32, 0, len(t.Glyphs)+1)
	for _, g := range t.Glyphs {
		locs = append(locs, uint32(len(glyf)))
		glyf = pad4(append(glyf, encodeGlyph(g)...))
	}
	locs = append(locs, uint32(len(glyf)))
	if len(glyf) < 0x20000 {
		loca = make([]byte, 0, 2*len(locs))
		for _, l := range locs {
			loca = append16(loca, uint16(l/2))
		}
		return glyf, loca, 0
	}
	loca = make([]byte, 0, 4*len(locs))
	for _, l := range locs {
		loca = append32(loca, l)
	}
	return glyf, loca, 1
}

// maxSizeOfInstructions returns the size of the largest glyph program.
func (t *GlyfTable) maxSizeOfInstructions() int {
	max := 0
	for _, g := range t.Glyphs {
		if !g.IsEmpty() && len(g.Instructions) > max {
			max = len(g.Instructions)
		}
	}
	return max
}
