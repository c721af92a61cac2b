package vtt

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/vttasm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	font := newFakeFont()
	font.texts["cvt"] = "0: 100\n2: -20"
	font.texts["prep"] = "SVTCA[Y]"
	font.texts["fpgm"] = "FDEF[], 0\nRTG[]\nENDF[]"
	font.texts["A"] = "SRP0[], 3"
	font.texts["B"] = "  \n"
	font.texts["Adieresis"] = "USEMYMETRICS[]\nOFFSET[R], 1, 0, 0\nANCHOR[], 2, 3, 4\nSVTCA[X]"
	report, err := CompileInstructions(context.Background(), font, DefaultOptions())
	require.NoError(t, err)
	t.Logf("report = %v", report)
	assert.Equal(t, 2, report.Compiled)
	assert.Empty(t, report.Dropped)
	assert.Equal(t, []int16{100, 0, -20}, font.cvt)
	assert.Equal(t, []byte{0x00}, font.programs["prep"])
	assert.Equal(t, []byte{0xB0, 0x00, 0x2C, 0x18, 0x2D}, font.programs["fpgm"])
	assert.Equal(t, []byte{0xB0, 0x03, 0x10}, font.programs["A"])
	assert.Equal(t, []byte{0x01}, font.programs["Adieresis"])
	assert.NotContains(t, font.programs, "B")
	assert.Equal(t, []uint16{RoundXYToGrid | UseMyMetrics, 0}, font.flags["Adieresis"])
	assert.NotEmpty(t, font.texts)
}

func TestCompileDropsSimpleGlyphComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	font := newFakeFont()
	font.texts["A"] = "OFFSET[R], 2, 0, 0\nSVTCA[X]"
	report, err := CompileInstructions(context.Background(), font, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, report.Dropped)
	assert.Equal(t, 0, report.Compiled)
	assert.Equal(t, "", font.texts["A"])
	assert.NotContains(t, font.programs, "A")
}

func TestCompileErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	font := newFakeFont()
	font.texts["prep"] = "SVTCA[Y]"
	font.texts["A"] = "SRP0[], 3"
	font.texts["B"] = "#BEGIN\nSRP0[], 3"
	font.texts["Adieresis"] = "OFFSET[R], 1, 5, 0"
	_, err := CompileInstructions(context.Background(), font, DefaultOptions())
	require.Error(t, err)
	t.Logf("error = %v", err)
	assert.Empty(t, font.programs, "nothing installed on error")
	//
	opts := DefaultOptions()
	opts.KeepGoing = true
	report, err := CompileInstructions(context.Background(), font, opts)
	require.NoError(t, err)
	require.Len(t, report.Failed, 2)
	codes := []int{core.Code(report.Failed[0]), core.Code(report.Failed[1])}
	sort.Ints(codes)
	assert.Equal(t, []int{core.ESCOPE, core.ECOMPOSITE}, codes)
	assert.Equal(t, 1, report.Compiled)
	assert.Contains(t, font.programs, "prep")
	assert.Contains(t, font.programs, "A")
	//
	font = newFakeFont()
	font.texts["fpgm"] = "SVTCA[X]"
	_, err = CompileInstructions(context.Background(), font, DefaultOptions())
	assert.Equal(t, core.EASSERT, core.Code(err))
}

func TestCompileOptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	font := newFakeFont()
	font.texts["fpgm"] = "FDEF[], 0\nRTG[]\nENDF[]\nFDEF[], 1\nRDTG[]\nENDF[]"
	font.texts["A"] = "SVTCA[X]"
	opts := DefaultOptions()
	opts.Ship = true
	opts.Functions = []int{1}
	opts.Workers = 1
	_, err := CompileInstructions(context.Background(), font, opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xB0, 0x01, 0x2C, 0x7D, 0x2D}, font.programs["fpgm"])
	assert.True(t, font.stripped)
	//
	font = newFakeFont()
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("g%02d", i)
		font.order = append(font.order, name)
		font.texts[name] = fmt.Sprintf("SRP0[], %d", i)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CompileInstructions(ctx, font, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdateComposites(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	font := newFakeFont()
	font.texts["A"] = "OFFSET[R], 2, 0, 0\nSVTCA[X]"
	font.texts["Adieresis"] = "/* VTT 6.01 compiler */\nSVTCA[X]\n"
	font.records["Adieresis"][1].Flags = ScaledComponentOffset
	require.NoError(t, UpdateComposites(font, nil, 6))
	assert.Equal(t, "", font.texts["A"])
	assert.Equal(t, "OFFSET[r], 1, 0, 0\nSCALEDCOMPONENTOFFSET[]\nANCHOR[], 2, 3, 4\n/* VTT 6.01 compiler */\nSVTCA[X]\n",
		font.texts["Adieresis"])
	// the sources now compile against the outlines
	opts := DefaultOptions()
	opts.CheckFlags = true
	report, err := CompileInstructions(context.Background(), font, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Compiled)
}

// --- Helpers ---------------------------------------------------------------

type fakeFont struct {
	sync.Mutex
	order    []string
	texts    map[string]string
	talks    map[string]string
	programs map[string][]byte
	records  map[string][]ComponentRecord
	flags    map[string][]uint16
	cvt      []int16
	stripped bool
}

func newFakeFont() *fakeFont {
	return &fakeFont{
		order:    []string{".notdef", "A", "dieresis", "Adieresis", "B"},
		texts:    map[string]string{},
		programs: map[string][]byte{},
		records: map[string][]ComponentRecord{
			"Adieresis": {
				{GlyphName: "A"},
				{GlyphName: "dieresis", Anchored: true, FirstPt: 3, SecondPt: 4},
			},
		},
		flags: map[string][]uint16{},
	}
}

var _ Font = &fakeFont{}
var _ TalkSources = &fakeFont{}

func (f *fakeFont) GlyphOrder() []string { return f.order }

func (f *fakeFont) ProgramText(name string) (string, bool) {
	f.Lock()
	defer f.Unlock()
	text, ok := f.texts[name]
	return text, ok
}

func (f *fakeFont) SetProgramText(name, text string) { f.texts[name] = text }

func (f *fakeFont) SetProgram(name string, code []byte) error {
	f.programs[name] = code
	return nil
}

func (f *fakeFont) SetCVT(values []int16) { f.cvt = values }

func (f *fakeFont) Components(glyph string) ([]ComponentRecord, bool) {
	f.Lock()
	defer f.Unlock()
	recs, ok := f.records[glyph]
	return append([]ComponentRecord(nil), recs...), ok
}

func (f *fakeFont) SetComponentFlags(glyph string, flags []uint16) error {
	if len(flags) != len(f.records[glyph]) {
		return fmt.Errorf("glyph %s has %d components", glyph, len(f.records[glyph]))
	}
	f.flags[glyph] = flags
	for i := range flags {
		f.records[glyph][i].Flags = flags[i]
	}
	return nil
}

func (f *fakeFont) StripSources() {
	f.texts = map[string]string{}
	f.talks = nil
	f.stripped = true
}

func (f *fakeFont) TalkText(glyph string) (string, bool) {
	text, ok := f.talks[glyph]
	return text, ok
}

func (f *fakeFont) SetTalkText(glyph, text string) { f.talks[glyph] = text }

func (f *fakeFont) ClearExtraTalk() {
	for name := range f.talks {
		if glyphIndex(f.order, name) < 0 {
			delete(f.talks, name)
		}
	}
}
