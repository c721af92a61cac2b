package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/vttasm/core"
	"github.com/npillmayer/vttasm/core/font"
	"github.com/npillmayer/vttasm/core/font/opentype/ot"
	"github.com/npillmayer/vttasm/core/font/truetype/vttfont"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

const fontProgram = "/* VTT 4.2 compiler */\nFDEF[], 0\nRTG[]\nENDF[]\nFDEF[], 1\nRTHG[]\nENDF[]"

func TestCompileCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	path, a := writeTestFont(t, func(f *vttfont.Font, a string) {
		f.SetProgramText("fpgm", fontProgram)
		f.SetProgramText("cvt", "0: 10")
		f.SetProgramText(a, "SRP0[], 3")
	})
	out := filepath.Join(t.TempDir(), "out.ttf")
	cmd := &compileCmd{Font: path, Output: out, Ship: true, Workers: 2, Functions: []int{1}}
	require.NoError(t, cmd.Run(testGlobals()))
	f, err := vttfont.Load(out)
	require.NoError(t, err)
	assert.False(t, f.HasSources())
	code, _ := f.Program(a)
	assert.Equal(t, []byte{0xB0, 0x03, 0x10}, code)
	code, _ = f.Program("fpgm")
	assert.Equal(t, []byte{0xB0, 0x01, 0x2C, 0x19, 0x2D}, code)
	assert.Equal(t, []int16{10}, f.CVT())
	//
	plain := filepath.Join(t.TempDir(), "plain.ttf")
	require.NoError(t, writeFile(plain))
	err = (&compileCmd{Font: plain, Output: out}).Run(testGlobals())
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestCompileOptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	f := openTestFont(t)
	cmd := &compileCmd{}
	opts := cmd.options(f)
	assert.Equal(t, 6, opts.VTTVersion)
	assert.Nil(t, opts.Functions)
	assert.Equal(t, 4, opts.Workers)
	f.SetProgramText("fpgm", fontProgram)
	cmd = &compileCmd{Workers: 8, KeepGoing: true}
	opts = cmd.options(f)
	assert.Equal(t, 4, opts.VTTVersion)
	assert.Equal(t, 8, opts.Workers)
	assert.True(t, opts.KeepGoing)
	assert.Equal(t, 5, vttVersion(f, 5))
}

func TestNormalizeCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	path, _ := writeTestFont(t, func(f *vttfont.Font, a string) {
		f.SetProgramText("prep", "/* VTT 6.01 compiler Mon Jan 31 12:00:00 2022 */\nSVTCA[Y]")
	})
	require.NoError(t, (&normalizeCmd{Font: path}).Run(testGlobals()))
	f, err := vttfont.Load(path)
	require.NoError(t, err)
	text, _ := f.ProgramText("prep")
	assert.Equal(t, "/* VTT 6.01 compiler */\nSVTCA[Y]\n", text)
}

func TestTransferSources(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	src := openTestFont(t)
	a := glyphName(t, src, 'A')
	src.SetProgramText("fpgm", "/* VTT 6.01 compiler Mon Jan 31 12:00:00 2022 */\nFDEF[], 0\nENDF[]")
	src.SetProgramText(a, "SRP0[], 3")
	src.SetTalkText(a, "YAnchor(3)")
	dst := openTestFont(t)
	assert.Equal(t, 2, transferSources(src, dst))
	text, _ := dst.ProgramText("fpgm")
	assert.Equal(t, "/* VTT 6.01 compiler */\nFDEF[], 0\nENDF[]\n", text)
	text, _ = dst.ProgramText(a)
	assert.Equal(t, "SRP0[], 3\n", text)
	text, _ = dst.TalkText(a)
	assert.Equal(t, "YAnchor(3)\n", text)
}

func TestCompositesCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	path, name := writeCompositeFont(t, "OFFSET[r], 1, 0, 0\nSVTCA[X]")
	f, err := vttfont.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, compositeGlyphs(f))
	a, b := glyphName(t, f, 'A'), glyphName(t, f, 'B')
	out := filepath.Join(t.TempDir(), "out.ttf")
	require.NoError(t, (&compositesCmd{Font: path, Output: out}).Run(testGlobals()))
	f, err = vttfont.Load(out)
	require.NoError(t, err)
	text, ok := f.ProgramText(name)
	require.True(t, ok, "glyph %s has no VTT source", name)
	expected := fmt.Sprintf("USEMYMETRICS[]\nOFFSET[R], %d, 10, -5\nANCHOR[], %d, 3, 4\nSVTCA[X]\n",
		indexOf(f, a), indexOf(f, b))
	assert.Equal(t, expected, text)
	//
	compiled := filepath.Join(t.TempDir(), "compiled.ttf")
	cmd := &compileCmd{Font: out, Output: compiled, CheckFlags: true, Ship: true, Workers: 2}
	require.NoError(t, cmd.Run(testGlobals()))
	f, err = vttfont.Load(compiled)
	require.NoError(t, err)
	code, _ := f.Program(name)
	assert.Equal(t, []byte{0x01}, code)
	records, ok := f.Components(name)
	require.True(t, ok)
	assert.Equal(t, ot.WeHaveInstructions, records[1].Flags&ot.WeHaveInstructions)
	//
	path, _ = writeCompositeFont(t, "OFFSET[r], 1, 0, 0\nSVTCA[X]")
	cmd = &compileCmd{Font: path, Output: compiled, Workers: 2}
	assert.Error(t, cmd.Run(testGlobals()))
}

func TestFontProgram(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	f := openTestFont(t)
	f.SetProgramText("fpgm", "FDEF[], 0\nRTG[]")
	_, err := fontProgramAssembly(f)
	assert.Error(t, err)
	f.SetProgramText("fpgm", fontProgram)
	asm, err := fontProgramAssembly(f)
	require.NoError(t, err)
	out, err := subsetFunctions(asm, []int{1}, true)
	require.NoError(t, err)
	assert.Equal(t, "B0 01 2C 19 2D", out)
	out, err = subsetFunctions(asm, []int{0}, false)
	require.NoError(t, err)
	assert.Contains(t, out, "RTG[]")
	assert.NotContains(t, out, "RTHG[]")
	//
	require.NoError(t, f.SetProgram("fpgm", []byte{0xB1, 0x01, 0x00, 0x2C, 0x18, 0x2D, 0x2C, 0x19, 0x2D}))
	f.SetProgramText("fpgm", "")
	asm, err = fontProgramAssembly(f)
	require.NoError(t, err)
	out, err = subsetFunctions(asm, []int{0}, true)
	require.NoError(t, err)
	assert.Equal(t, "B0 00 2C 18 2D", out)
}

func TestDisassemble(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	f := openTestFont(t)
	a := glyphName(t, f, 'A')
	require.NoError(t, f.SetProgram(a, []byte{0xB0, 0x03, 0x10}))
	listing, err := disassemble(f, a)
	require.NoError(t, err)
	assert.Contains(t, listing, "PUSHB[] 3")
	assert.Contains(t, listing, "SRP0[]")
	_, err = disassemble(f, "no-such-glyph")
	assert.Error(t, err)
}

func TestSaveBuiltinFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	f, path, err := loadFont(context.Background(), "Go Sans")
	require.NoError(t, err)
	assert.Equal(t, "", path)
	assert.Error(t, saveFont(f, path, ""))
}

func TestREPL(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	intp := &Intp{mode: "vtt"}
	out, quit, err := intp.eval("SRP0[], 3")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out, "SRP0[]")
	assert.Contains(t, out, "code: B0 03 10")
	_, _, err = intp.eval("SRP0[], 3, 4, 5; FOO[]")
	assert.Error(t, err)
	//
	_, _, err = intp.eval(":tt")
	require.NoError(t, err)
	assert.Equal(t, "tt", intp.mode)
	out, _, err = intp.eval("PUSHB[] 3; SRP0[]")
	require.NoError(t, err)
	assert.Equal(t, "code: B0 03 10", out)
	out, _, err = intp.eval(":dis B0 03 10")
	require.NoError(t, err)
	assert.Contains(t, out, "SRP0[]")
	_, _, err = intp.eval(":dis B0 0")
	assert.Error(t, err)
	out, _, _ = intp.eval(":what")
	assert.True(t, strings.HasPrefix(out, "Enter VTT assembly"))
	_, quit, _ = intp.eval(":quit")
	assert.True(t, quit)
}

func TestMnemonicCompletion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.cli")
	defer teardown()
	//
	c := mnemonicCompleter{}
	line := []rune("MDAP[R], 3; SRP")
	candidates, length := c.Do(line, len(line))
	assert.Equal(t, 3, length)
	var names []string
	for _, cand := range candidates {
		names = append(names, string(cand))
	}
	assert.Equal(t, []string{"0[", "1[", "2["}, names)
	candidates, _ = c.Do([]rune("SRP0[], "), 8)
	assert.Empty(t, candidates)
}

// ---------------------------------------------------------------------------

func testGlobals() *globals {
	return &globals{ctx: context.Background()}
}

func openTestFont(t *testing.T) *vttfont.Font {
	f, err := vttfont.Open(goregular.TTF)
	require.NoError(t, err)
	return f
}

func glyphName(t *testing.T, f *vttfont.Font, r rune) string {
	gid, err := font.FallbackFont().SFNT.GlyphIndex(nil, r)
	require.NoError(t, err)
	return f.GlyphOrder()[gid]
}

// writeTestFont saves Go Sans with VTT sources set up by init to a temporary
// file. It returns the file path and the name of glyph 'A'.
func writeTestFont(t *testing.T, init func(f *vttfont.Font, a string)) (string, string) {
	f := openTestFont(t)
	a := glyphName(t, f, 'A')
	init(f, a)
	path := filepath.Join(t.TempDir(), "test.ttf")
	require.NoError(t, f.Save(path))
	return path, a
}

// writeCompositeFont saves Go Sans with glyph 'Ä' replaced by a composite of
// 'A', offset by (10,-5), and 'B', anchored at points 3/4. The composite
// gets VTT source text. It returns the file path and the composite's name.
func writeCompositeFont(t *testing.T, text string) (string, string) {
	otf, err := ot.Parse(goregular.TTF)
	require.NoError(t, err)
	gid := func(r rune) ot.GlyphIndex {
		g, err := font.FallbackFont().SFNT.GlyphIndex(nil, r)
		require.NoError(t, err)
		return ot.GlyphIndex(g)
	}
	a, b := gid('A'), gid('B')
	data := []byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0x26, byte(a >> 8), byte(a), 10, 0xFB, // USE_MY_METRICS, ROUND_XY_TO_GRID
		0x00, 0x00, byte(b >> 8), byte(b), 3, 4,
	}
	require.NoError(t, otf.Table(ot.T("glyf")).Self().AsGlyf().SetGlyph(gid('Ä'), data))
	bin, err := otf.Encode()
	require.NoError(t, err)
	f, err := vttfont.Open(bin)
	require.NoError(t, err)
	name := glyphName(t, f, 'Ä')
	f.SetProgramText(name, text)
	path := filepath.Join(t.TempDir(), "composite.ttf")
	require.NoError(t, f.Save(path))
	return path, name
}

func indexOf(f *vttfont.Font, name string) int {
	for i, n := range f.GlyphOrder() {
		if n == name {
			return i
		}
	}
	return -1
}

func writeFile(path string) error {
	f, err := vttfont.Open(goregular.TTF)
	if err != nil {
		return err
	}
	return f.Save(path)
}
