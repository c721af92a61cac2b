package vtt

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/vttasm/core"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type CompositeTestEnviron struct {
	suite.Suite
	glyphOrder []string
	records    []ComponentRecord
	comps      []Component
}

// listen for 'go test' command --> run test methods
func TestCompositeFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	suite.Run(t, new(CompositeTestEnviron))
}

// run before each test method
func (env *CompositeTestEnviron) SetupTest() {
	env.glyphOrder = []string{".notdef", "A", "dieresis", "Adieresis"}
	env.records = []ComponentRecord{
		{GlyphName: "A", Flags: RoundXYToGrid | UseMyMetrics},
		{GlyphName: "dieresis", Flags: ScaledComponentOffset, Anchored: true, FirstPt: 3, SecondPt: 4},
	}
	_, comps, err := TransformAssembly(`USEMYMETRICS[]
OFFSET[R], 1, 0, 0
SCALEDCOMPONENTOFFSET[]
ANCHOR[], 2, 3, 4
SVTCA[Y]`, "Adieresis")
	env.Require().NoError(err)
	env.comps = comps
}

// --- Tests -----------------------------------------------------------------

func (env *CompositeTestEnviron) TestMatchingComponents() {
	env.NoError(CheckCompositeInfo("Adieresis", env.records, env.comps, env.glyphOrder, false))
	env.NoError(CheckCompositeInfo("Adieresis", env.records, env.comps, env.glyphOrder, true))
}

func (env *CompositeTestEnviron) TestComponentCount() {
	err := CheckCompositeInfo("Adieresis", env.records[:1], env.comps, env.glyphOrder, false)
	env.Equal(core.ECOMPOSITE, core.Code(err))
	env.T().Logf("error = %v", err)
	var ierr InvalidCompositeError
	env.ErrorAs(err, &ierr)
	env.Equal(-1, ierr.Component)
}

func (env *CompositeTestEnviron) TestComponentMismatch() {
	var tests = []struct {
		modify    func(recs []ComponentRecord)
		component int
	}{
		{func(recs []ComponentRecord) { recs[0].GlyphName = "dieresis" }, 0},
		{func(recs []ComponentRecord) { recs[0].X = 10 }, 0},
		{func(recs []ComponentRecord) { recs[0].Y = -10 }, 0},
		{func(recs []ComponentRecord) { recs[0].Anchored = true }, 0},
		{func(recs []ComponentRecord) { recs[1].Anchored = false }, 1},
		{func(recs []ComponentRecord) { recs[1].FirstPt = 0 }, 1},
		{func(recs []ComponentRecord) { recs[1].SecondPt = 0 }, 1},
		{func(recs []ComponentRecord) { recs[1].GlyphName = "Z" }, 1},
	}
	for i, test := range tests {
		recs := append([]ComponentRecord(nil), env.records...)
		test.modify(recs)
		err := CheckCompositeInfo("Adieresis", recs, env.comps, env.glyphOrder, false)
		env.T().Logf("test #%d: %v", i, err)
		var ierr InvalidCompositeError
		if env.ErrorAs(err, &ierr, "test #%d", i) {
			env.Equal(test.component, ierr.Component, "test #%d", i)
		}
	}
}

func (env *CompositeTestEnviron) TestFlagMismatch() {
	for i, flags := range []uint16{UseMyMetrics, RoundXYToGrid, RoundXYToGrid | UseMyMetrics | UnscaledComponentOffset} {
		recs := append([]ComponentRecord(nil), env.records...)
		recs[0].Flags = flags
		env.NoError(CheckCompositeInfo("Adieresis", recs, env.comps, env.glyphOrder, false))
		err := CheckCompositeInfo("Adieresis", recs, env.comps, env.glyphOrder, true)
		env.Equal(core.ECOMPOSITE, core.Code(err), "test #%d", i)
	}
}

func (env *CompositeTestEnviron) TestSetComponentsFlags() {
	recs := []ComponentRecord{{GlyphName: "A", Flags: 0x0001}, {GlyphName: "dieresis", Flags: UnscaledComponentOffset | RoundXYToGrid}}
	env.Require().NoError(SetComponentsFlags(recs, env.comps, 6))
	env.Equal(uint16(0x0001)|UseMyMetrics|RoundXYToGrid, recs[0].Flags)
	env.Equal(ScaledComponentOffset, recs[1].Flags)
	//
	recs = []ComponentRecord{{GlyphName: "A"}, {GlyphName: "dieresis", Flags: UnscaledComponentOffset}}
	env.Require().NoError(SetComponentsFlags(recs, env.comps, 5))
	env.Equal(UnscaledComponentOffset, recs[1].Flags)
	//
	env.Equal(core.EASSERT, core.Code(SetComponentsFlags(recs[:1], env.comps, 6)))
}

func (env *CompositeTestEnviron) TestWriteCompositeInfo() {
	text := "/* VTT 6.01 compiler */\nUSEMYMETRICS[]\nOFFSET[r], 1, 0, 0\nOVERLAP[]\nANCHOR[], 2, 9, 9\nSVTCA[Y]\nSRP0[], 3\n"
	head, block, tail, err := WriteCompositeInfo(env.records, env.glyphOrder, text, 6)
	env.Require().NoError(err)
	env.Equal("/* VTT 6.01 compiler */\n", head)
	env.Equal("USEMYMETRICS[]\nOFFSET[R], 1, 0, 0\nSCALEDCOMPONENTOFFSET[]\nANCHOR[], 2, 3, 4\n", block)
	env.Equal("SVTCA[Y]\nSRP0[], 3\n", tail)
	// the generated block describes the components it was generated from
	_, comps, err := TransformAssembly(head+block+tail, "Adieresis")
	env.Require().NoError(err)
	env.NoError(CheckCompositeInfo("Adieresis", env.records, comps, env.glyphOrder, true))
	//
	_, block, _, err = WriteCompositeInfo(env.records, env.glyphOrder, "", 5)
	env.Require().NoError(err)
	env.Equal("USEMYMETRICS[]\nOFFSET[R], 1, 0, 0\nANCHOR[], 2, 3, 4\n", block)
}
