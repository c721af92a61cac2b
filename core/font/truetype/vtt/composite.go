package vtt

import (
	"fmt"
	"regexp"
	"strings"
)

// Component flags of composite glyph records in table 'glyf'.
const (
	RoundXYToGrid           uint16 = 0x0004
	WeHaveInstructions      uint16 = 0x0100
	UseMyMetrics            uint16 = 0x0200
	ScaledComponentOffset   uint16 = 0x0800
	UnscaledComponentOffset uint16 = 0x1000
)

// OffsetScaling tells whether a component's offset is scaled along with
// the component. ScalingUnset leaves the glyph's flags alone.
type OffsetScaling int8

const (
	ScalingUnset OffsetScaling = iota
	Scaled
	Unscaled
)

func (s OffsetScaling) String() string {
	switch s {
	case Scaled:
		return "scaled"
	case Unscaled:
		return "unscaled"
	}
	return "unset"
}

// Component describes a component of a composite glyph, as declared by
// OFFSET[] or ANCHOR[] in a glyph program.
type Component interface {
	GlyphIndex() int
	componentFlags() (useMyMetrics, roundToGrid bool, scaling OffsetScaling)
}

// OffsetComponent is a component positioned by an x/y offset.
type OffsetComponent struct {
	Index        int // index of the base glyph in the glyph order
	X, Y         int
	RoundToGrid  bool
	UseMyMetrics bool
	Scaling      OffsetScaling
}

// AnchorComponent is a component positioned by matching points.
type AnchorComponent struct {
	Index         int
	First, Second int // point numbers in the parent and in the component
	UseMyMetrics  bool
	Scaling       OffsetScaling
}

func (c *OffsetComponent) GlyphIndex() int { return c.Index }
func (c *AnchorComponent) GlyphIndex() int { return c.Index }

func (c *OffsetComponent) componentFlags() (bool, bool, OffsetScaling) {
	return c.UseMyMetrics, c.RoundToGrid, c.Scaling
}

func (c *AnchorComponent) componentFlags() (bool, bool, OffsetScaling) {
	return c.UseMyMetrics, false, c.Scaling
}

// ComponentRecord is a component of a composite glyph as stored in the
// font, i.e. the glyph outline's view of a component.
type ComponentRecord struct {
	GlyphName string
	Flags     uint16
	Anchored  bool // positioned by points instead of offsets
	X, Y      int
	FirstPt   int
	SecondPt  int
}

func glyphIndex(glyphOrder []string, name string) int {
	for i, n := range glyphOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// CheckCompositeInfo verifies that the components declared in a glyph
// program match the glyph's components, one by one and in order.
// If checkFlags is set, the component flags have to match as well.
func CheckCompositeInfo(name string, records []ComponentRecord, comps []Component,
	glyphOrder []string, checkFlags bool) error {
	//
	fail := func(i int, format string, v ...interface{}) error {
		return InvalidCompositeError{Glyph: name, Component: i, Msg: fmt.Sprintf(format, v...)}
	}
	if len(comps) != len(records) {
		return fail(-1, "has incorrect number of components: expected %d, found %d",
			len(records), len(comps))
	}
	for i, rec := range records {
		comp := comps[i]
		index := glyphIndex(glyphOrder, rec.GlyphName)
		if index < 0 {
			return fail(i, "refers to glyph '%s', which is not in the glyph order", rec.GlyphName)
		}
		if comp.GlyphIndex() != index {
			return fail(i, "has incorrect index: expected %d, found %d", index, comp.GlyphIndex())
		}
		if rec.Anchored {
			anchor, ok := comp.(*AnchorComponent)
			if !ok {
				return fail(i, "has incorrect type: expected ANCHOR[], found OFFSET[]")
			}
			if rec.FirstPt != anchor.First {
				return fail(i, "has wrong anchor point: expected %d, found %d", rec.FirstPt, anchor.First)
			}
			if rec.SecondPt != anchor.Second {
				return fail(i, "has wrong anchor point: expected %d, found %d", rec.SecondPt, anchor.Second)
			}
		} else {
			offset, ok := comp.(*OffsetComponent)
			if !ok {
				return fail(i, "has incorrect type: expected OFFSET[], found ANCHOR[]")
			}
			if rec.X != offset.X {
				return fail(i, "has wrong x offset: expected %d, found %d", rec.X, offset.X)
			}
			if rec.Y != offset.Y {
				return fail(i, "has wrong y offset: expected %d, found %d", rec.Y, offset.Y)
			}
			if checkFlags && hasFlag(rec.Flags, RoundXYToGrid) != offset.RoundToGrid {
				return fail(i, "has wrong 'ROUND_XY_TO_GRID' flag")
			}
		}
		if !checkFlags {
			continue
		}
		useMyMetrics, _, scaling := comp.componentFlags()
		if hasFlag(rec.Flags, UseMyMetrics) != useMyMetrics {
			return fail(i, "has wrong 'USE_MY_METRICS' flag")
		}
		if hasFlag(rec.Flags, ScaledComponentOffset) != (scaling == Scaled) {
			return fail(i, "has wrong 'SCALED_COMPONENT_OFFSET' flag")
		}
		if hasFlag(rec.Flags, UnscaledComponentOffset) != (scaling == Unscaled) {
			return fail(i, "has wrong 'UNSCALED_COMPONENT_OFFSET' flag")
		}
	}
	return nil
}

func hasFlag(flags, f uint16) bool {
	return flags&f != 0
}

// SetComponentsFlags transfers the flags declared in a glyph program onto
// the glyph's component records. Offset scaling flags are set for VTT
// versions 6 and up only.
func SetComponentsFlags(records []ComponentRecord, comps []Component, vttVersion int) error {
	if len(records) != len(comps) {
		return errAssert("cannot set flags of %d components from %d declarations", len(records), len(comps))
	}
	for i := range records {
		rec := &records[i]
		useMyMetrics, roundToGrid, scaling := comps[i].componentFlags()
		rec.Flags = setFlag(rec.Flags, UseMyMetrics, useMyMetrics)
		rec.Flags = setFlag(rec.Flags, RoundXYToGrid, roundToGrid)
		if vttVersion < 6 || scaling == ScalingUnset {
			continue
		}
		rec.Flags = setFlag(rec.Flags, ScaledComponentOffset, scaling == Scaled)
		rec.Flags = setFlag(rec.Flags, UnscaledComponentOffset, scaling == Unscaled)
	}
	return nil
}

func setFlag(flags, f uint16, on bool) uint16 {
	if on {
		return flags | f
	}
	return flags &^ f
}

var compositeInfoRE = regexp.MustCompile(`(?m)` +
	`^USEMYMETRICS\[\][\r\n]?` +
	`|^OVERLAP\[\][\r\n]?` +
	`|^(?:UN)?SCALEDCOMPONENTOFFSET\[\][\r\n]?` +
	`|^ANCHOR\[\](?:, *-?[0-9]+){3}[\r\n]?` +
	`|^OFFSET\[[rR]\](?:, *-?[0-9]+){3}[\r\n]?`)

// WriteCompositeInfo generates the composite pseudo-instructions for a
// glyph's components. Existing pseudo-instructions are cut out of text:
// head is the remaining text up to the last of them, tail the text after it.
// head + block + tail is the updated glyph program.
func WriteCompositeInfo(records []ComponentRecord, glyphOrder []string, text string,
	vttVersion int) (head, block, tail string, err error) {
	//
	var h strings.Builder
	last := 0
	for _, m := range compositeInfoRE.FindAllStringIndex(text, -1) {
		h.WriteString(text[last:m[0]])
		last = m[1]
	}
	head, tail = h.String(), text[last:]
	var b strings.Builder
	for _, rec := range records {
		if hasFlag(rec.Flags, UseMyMetrics) {
			b.WriteString("USEMYMETRICS[]\n")
		}
		if vttVersion >= 6 {
			if hasFlag(rec.Flags, ScaledComponentOffset) {
				b.WriteString("SCALEDCOMPONENTOFFSET[]\n")
			}
			if hasFlag(rec.Flags, UnscaledComponentOffset) {
				b.WriteString("UNSCALEDCOMPONENTOFFSET[]\n")
			}
		}
		index := glyphIndex(glyphOrder, rec.GlyphName)
		if index < 0 {
			return "", "", "", InvalidCompositeError{Glyph: rec.GlyphName, Component: -1,
				Msg: "is used as a component but is not in the glyph order"}
		}
		if rec.Anchored {
			fmt.Fprintf(&b, "ANCHOR[], %d, %d, %d\n", index, rec.FirstPt, rec.SecondPt)
		} else {
			flag := "r"
			if hasFlag(rec.Flags, RoundXYToGrid) {
				flag = "R"
			}
			fmt.Fprintf(&b, "OFFSET[%s], %d, %d, %d\n", flag, index, rec.X, rec.Y)
		}
	}
	return head, b.String(), tail, nil
}
