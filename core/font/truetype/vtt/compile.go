package vtt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Font gives access to the VTT sources and the hinting related tables of
// a TrueType font.
//
// Reading methods may be called concurrently, writing methods are called
// from a single goroutine.
type Font interface {
	GlyphOrder() []string
	ProgramText(name string) (string, bool) // glyph name or "fpgm", "prep", "cvt"
	SetProgramText(name, text string)
	SetProgram(name string, code []byte) error // glyph name or "fpgm", "prep"
	SetCVT(values []int16)
	Components(glyph string) ([]ComponentRecord, bool) // false if glyph is not a composite
	SetComponentFlags(glyph string, flags []uint16) error
	StripSources() // remove the VTT source tables
}

// Options configure compilation of a font's VTT sources.
type Options struct {
	VTTVersion int   // major version of VTT which produced the sources
	CheckFlags bool  // component flags have to match the glyph outlines
	Ship       bool  // remove VTT sources after compilation
	Workers    int   // number of glyphs compiled concurrently
	KeepGoing  bool  // skip glyphs which fail to compile instead of aborting
	Functions  []int // keep only these functions in the font program; nil keeps all
}

// DefaultOptions returns options for sources of VTT version 6.
func DefaultOptions() Options {
	return Options{VTTVersion: 6, Workers: 4}
}

// Report summarizes a compilation run.
type Report struct {
	Compiled int      // glyph programs installed
	Dropped  []string // glyphs whose sources declare components but whose outline is simple
	Failed   []error  // failed glyphs, with KeepGoing only
}

type glyphResult struct {
	name       string
	program    *CompiledProgram
	components []Component
	records    []ComponentRecord
	composite  bool
	err        error
}

// CompileInstructions compiles the control values, the pre-program, the
// font program and all glyph programs of a font and installs the results.
//
// Glyphs are compiled concurrently. Nothing is installed unless every
// program compiled, except for glyphs which fail with KeepGoing set: these
// are skipped and listed in the report.
func CompileInstructions(ctx context.Context, font Font, opts Options) (*Report, error) {
	var cvt []int16
	if text, ok := font.ProgramText("cvt"); ok {
		var err error
		if cvt, err = ParseCVT(text); err != nil {
			return nil, fmt.Errorf("control values: %w", err)
		}
	}
	extras := make(map[string]*CompiledProgram, 2)
	for _, tag := range []string{"prep", "fpgm"} {
		text, ok := font.ProgramText(tag)
		if !ok {
			continue
		}
		prog, err := compileExtra(text, tag, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		extras[tag] = prog
	}
	results, err := compileGlyphs(ctx, font, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	for _, r := range results {
		if r.err != nil {
			if !opts.KeepGoing {
				return nil, r.err
			}
			report.Failed = append(report.Failed, r.err)
		}
	}
	// install
	if cvt != nil {
		font.SetCVT(cvt)
	}
	for _, tag := range []string{"prep", "fpgm"} {
		if prog, ok := extras[tag]; ok {
			if err := font.SetProgram(tag, prog.Bytecode); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range results {
		if r.err != nil || r.program == nil {
			continue
		}
		if len(r.components) > 0 {
			if !r.composite {
				tracer().Infof("WARNING: glyph '%s' contains components in VTT assembly but not in glyf table; drop assembly", r.name)
				font.SetProgramText(r.name, "")
				report.Dropped = append(report.Dropped, r.name)
				continue
			}
			flags := make([]uint16, len(r.records))
			for i, rec := range r.records {
				flags[i] = rec.Flags
			}
			if err := font.SetComponentFlags(r.name, flags); err != nil {
				return nil, err
			}
		}
		if !r.program.Empty() {
			if err := font.SetProgram(r.name, r.program.Bytecode); err != nil {
				return nil, err
			}
			report.Compiled++
		}
	}
	if opts.Ship {
		font.StripSources()
	}
	tracer().Infof("compiled %d glyph programs, %d dropped, %d failed",
		report.Compiled, len(report.Dropped), len(report.Failed))
	return report, nil
}

func compileExtra(text, tag string, opts Options) (*CompiledProgram, error) {
	if tag != "fpgm" || opts.Functions == nil {
		return MakeProgram(text, tag)
	}
	asm, _, err := TransformAssembly(text, tag)
	if err != nil {
		return nil, err
	}
	merged, err := MergeFunctions([]string{asm}, opts.Functions)
	if err != nil {
		return nil, err
	}
	return Compile(strings.Join(merged, "\n"))
}

func compileGlyphs(ctx context.Context, font Font, opts Options) ([]glyphResult, error) {
	order := font.GlyphOrder()
	results := make([]glyphResult, len(order))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, name := range order {
		text, ok := font.ProgramText(name)
		if !ok {
			continue
		}
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = compileGlyph(font, name, text, order, opts)
			if results[i].err != nil && !opts.KeepGoing {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func compileGlyph(font Font, name, text string, order []string, opts Options) glyphResult {
	r := glyphResult{name: name}
	wrap := func(err error) glyphResult {
		r.err = fmt.Errorf("glyph '%s': %w", name, err)
		return r
	}
	r.program, r.components, r.err = MakeGlyphProgram(text, name)
	if r.err != nil {
		return wrap(r.err)
	}
	if len(r.components) == 0 {
		return r
	}
	r.records, r.composite = font.Components(name)
	if !r.composite {
		return r
	}
	if err := CheckCompositeInfo(name, r.records, r.components, order, opts.CheckFlags); err != nil {
		return wrap(err)
	}
	if err := SetComponentsFlags(r.records, r.components, opts.VTTVersion); err != nil {
		return wrap(err)
	}
	return r
}

// UpdateComposites rewrites the composite pseudo-instructions in the
// sources of glyphs from the glyphs' actual components. With glyphs nil,
// all glyphs are updated. Simple glyphs whose sources declare components
// lose their source.
func UpdateComposites(font Font, glyphs []string, vttVersion int) error {
	order := font.GlyphOrder()
	if glyphs == nil {
		glyphs = order
	}
	for _, name := range glyphs {
		text, ok := font.ProgramText(name)
		var comps []Component
		if ok {
			var err error
			if _, comps, err = TransformAssembly(text, name); err != nil {
				logProgramError(name, err)
				return fmt.Errorf("glyph '%s': %w", name, err)
			}
		}
		records, composite := font.Components(name)
		if !composite {
			if len(comps) > 0 {
				tracer().Infof("WARNING: glyph '%s' contains components in VTT assembly but not in glyf table; drop assembly", name)
				font.SetProgramText(name, "")
			}
			continue
		}
		head, block, tail, err := WriteCompositeInfo(records, order, text, vttVersion)
		if err != nil {
			return err
		}
		font.SetProgramText(name, head+block+tail)
	}
	return nil
}

// String is used for trace output.
func (r *Report) String() string {
	return fmt.Sprintf("Report{compiled=%d, dropped=%d, failed=%d}", r.Compiled, len(r.Dropped), len(r.Failed))
}
