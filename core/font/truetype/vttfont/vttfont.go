package vttfont

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/npillmayer/vttasm/core"
	"github.com/npillmayer/vttasm/core/font"
	"github.com/npillmayer/vttasm/core/font/opentype/ot"
	"github.com/npillmayer/vttasm/core/font/truetype/vtt"
)

// Font is a TrueType font together with its VTT sources.
type Font struct {
	sync.RWMutex
	Name  string
	otf   *ot.Font
	order []string
	index map[string]ot.GlyphIndex
}

var (
	_ vtt.Font        = &Font{}
	_ vtt.TalkSources = &Font{}
)

// extra programs are stored under different names than their tables
var extraNames = map[string]string{
	"prep": "ppgm",
	"fpgm": "fpgm",
	"cvt":  "cvt",
}

// Load reads a font from a file.
func Load(path string) (*Font, error) {
	sf, err := font.LoadOpenTypeFont(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot load font %s", path)
	}
	return New(sf)
}

// Open creates a font from binary font data.
func Open(data []byte) (*Font, error) {
	sf, err := font.ParseOpenTypeFont(data)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse font")
	}
	return New(sf)
}

// New creates a font from a scalable font.
func New(sf *font.ScalableFont) (*Font, error) {
	otf, err := ot.Parse(sf.Binary)
	if err != nil {
		return nil, err
	}
	if otf.Table(ot.T("glyf")) == nil {
		return nil, core.Error(core.EINVALID, "font %s has no TrueType outlines", sf.Fontname)
	}
	f := &Font{Name: sf.Fontname, otf: otf, order: sf.GlyphOrder()}
	if len(f.order) != otf.NumGlyphs() {
		return nil, core.Error(core.EINVALID, "font %s: inconsistent number of glyphs", sf.Fontname)
	}
	f.index = make(map[string]ot.GlyphIndex, len(f.order))
	for i, name := range f.order {
		f.index[name] = ot.GlyphIndex(i)
	}
	tracer().Debugf("font %s has %d glyphs", f.Name, len(f.order))
	return f, nil
}

// HasSources is true if the font contains VTT glyph programs.
func (f *Font) HasSources() bool {
	return f.otf.Sources(ot.T("TSI1"), false) != nil
}

// GlyphOrder returns the glyph names, indexed by glyph ID.
func (f *Font) GlyphOrder() []string {
	return f.order
}

// ProgramText returns the VTT source of a glyph program or of one of the extra
// programs "prep", "fpgm" and "cvt".
func (f *Font) ProgramText(name string) (string, bool) {
	return f.sourceText(ot.T("TSI1"), name)
}

// SetProgramText sets the VTT source of a glyph program or of an extra program.
// An empty text removes the source.
func (f *Font) SetProgramText(name, text string) {
	if err := f.setSourceText(ot.T("TSI1"), name, text); err != nil {
		tracer().Errorf("cannot store program %s: %v", name, err)
	}
}

// TalkText returns the VTTTalk source of a glyph.
func (f *Font) TalkText(glyph string) (string, bool) {
	return f.sourceText(ot.T("TSI3"), glyph)
}

// SetTalkText sets the VTTTalk source of a glyph.
func (f *Font) SetTalkText(glyph, text string) {
	if err := f.setSourceText(ot.T("TSI3"), glyph, text); err != nil {
		tracer().Errorf("cannot store VTTTalk of %s: %v", glyph, err)
	}
}

// ClearExtraTalk removes data VTT stores in the reserved entries of 'TSI3'.
func (f *Font) ClearExtraTalk() {
	f.Lock()
	defer f.Unlock()
	if src := f.otf.Sources(ot.T("TSI3"), false); src != nil {
		src.ClearExtras()
	}
}

func (f *Font) sourceText(tag ot.Tag, name string) (string, bool) {
	f.RLock()
	defer f.RUnlock()
	src := f.otf.Sources(tag, false)
	if src == nil {
		return "", false
	}
	var text string
	var ok bool
	if extra, isExtra := extraNames[name]; isExtra && tag == ot.T("TSI1") {
		text, ok = src.Extra(extra)
	} else if gid, found := f.index[name]; found {
		text, ok = src.Glyph(gid)
	}
	return strings.ReplaceAll(text, "\r", "\n"), ok
}

func (f *Font) setSourceText(tag ot.Tag, name, text string) error {
	f.Lock()
	defer f.Unlock()
	src := f.otf.Sources(tag, true)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\r")
	if text = strings.TrimRightFunc(text, unicode.IsSpace); text != "" {
		text += "\r"
	}
	if extra, isExtra := extraNames[name]; isExtra && tag == ot.T("TSI1") {
		return src.SetExtra(extra, text)
	}
	gid, found := f.index[name]
	if !found {
		return core.Error(core.EMISSING, "no glyph named %s", name)
	}
	src.SetGlyph(gid, text)
	return nil
}

// --- Compiled programs -----------------------------------------------------

// SetProgram installs byte-code for a glyph or for the font program ("fpgm")
// or the pre-program ("prep"). Glyphs without outline cannot carry
// instructions; programs for them are ignored.
func (f *Font) SetProgram(name string, code []byte) error {
	f.Lock()
	defer f.Unlock()
	if name == "fpgm" || name == "prep" {
		return f.otf.SetTable(ot.T(name), code)
	}
	g, err := f.glyph(name)
	if err != nil {
		return err
	}
	if g.IsEmpty() {
		tracer().Debugf("glyph %s has no outline, drop instructions", name)
		return nil
	}
	g.Instructions = append([]byte(nil), code...)
	return nil
}

// Program returns the byte-code of a glyph or of table 'fpgm' or 'prep'.
func (f *Font) Program(name string) ([]byte, bool) {
	f.RLock()
	defer f.RUnlock()
	if name == "fpgm" || name == "prep" {
		if t := f.otf.Table(ot.T(name)); t != nil {
			return t.Binary(), true
		}
		return nil, false
	}
	g, err := f.glyph(name)
	if err != nil || g.IsEmpty() {
		return nil, false
	}
	return g.Instructions, true
}

// SetCVT replaces table 'cvt '. Empty values leave the table untouched.
func (f *Font) SetCVT(values []int16) {
	if len(values) == 0 {
		return
	}
	b := make([]byte, 2*len(values))
	for i, v := range values {
		b[2*i], b[2*i+1] = byte(uint16(v)>>8), byte(v)
	}
	f.Lock()
	defer f.Unlock()
	if err := f.otf.SetTable(ot.T("cvt "), b); err != nil {
		tracer().Errorf("cannot set control values: %v", err)
	}
}

// CVT returns the control values of table 'cvt '.
func (f *Font) CVT() []int16 {
	f.RLock()
	defer f.RUnlock()
	t := f.otf.Table(ot.T("cvt "))
	if t == nil {
		return nil
	}
	b := t.Binary()
	values := make([]int16, len(b)/2)
	for i := range values {
		values[i] = int16(uint16(b[2*i])<<8 | uint16(b[2*i+1]))
	}
	return values
}

// --- Composite glyphs ------------------------------------------------------

// Components returns the component records of a composite glyph. The records
// are copies; flags are changed by SetComponentFlags.
func (f *Font) Components(glyph string) ([]vtt.ComponentRecord, bool) {
	f.RLock()
	defer f.RUnlock()
	g, err := f.glyph(glyph)
	if err != nil || !g.IsComposite() {
		return nil, false
	}
	records := make([]vtt.ComponentRecord, len(g.Components))
	for i, c := range g.Components {
		rec := vtt.ComponentRecord{Flags: c.Flags, Anchored: c.Anchored()}
		if int(c.GlyphIndex) < len(f.order) {
			rec.GlyphName = f.order[c.GlyphIndex]
		}
		if rec.Anchored {
			rec.FirstPt, rec.SecondPt = c.Arg1, c.Arg2
		} else {
			rec.X, rec.Y = c.Arg1, c.Arg2
		}
		records[i] = rec
	}
	return records, true
}

// SetComponentFlags replaces the flags of the components of a composite glyph.
func (f *Font) SetComponentFlags(glyph string, flags []uint16) error {
	f.Lock()
	defer f.Unlock()
	g, err := f.glyph(glyph)
	if err != nil {
		return err
	}
	if !g.IsComposite() || len(g.Components) != len(flags) {
		return core.Error(core.EINVALID, "glyph %s does not have %d components", glyph, len(flags))
	}
	for i := range g.Components {
		g.Components[i].Flags = flags[i]
	}
	return nil
}

func (f *Font) glyph(name string) (*ot.Glyph, error) {
	gid, found := f.index[name]
	if !found {
		return nil, core.Error(core.EMISSING, "no glyph named %s", name)
	}
	g := f.otf.Table(ot.T("glyf")).Self().AsGlyf().Glyph(gid)
	if g == nil {
		return nil, core.Error(core.EINTERNAL, "glyph %s missing in glyf table", name)
	}
	return g, nil
}

// --- Writing ---------------------------------------------------------------

// StripSources removes all VTT tables from the font.
func (f *Font) StripSources() {
	f.Lock()
	defer f.Unlock()
	for _, tag := range ot.VTTTables {
		f.otf.RemoveTable(ot.T(tag))
	}
}

// Encode produces the binary font data.
func (f *Font) Encode() ([]byte, error) {
	f.RLock()
	defer f.RUnlock()
	return f.otf.Encode()
}

// Save writes the font to a file.
func (f *Font) Save(path string) error {
	b, err := f.Encode()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, b, 0644); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot write font to %s", path)
	}
	tracer().Infof("font %s written to %s", f.Name, path)
	return nil
}

func (f *Font) String() string {
	return fmt.Sprintf("Font{%s, %d glyphs}", f.Name, len(f.order))
}
