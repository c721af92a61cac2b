package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/npillmayer/vttasm/core"
	"github.com/npillmayer/vttasm/core/font/truetype/ttasm"
	"github.com/npillmayer/vttasm/core/font/truetype/vtt"
	"github.com/npillmayer/vttasm/core/font/truetype/vttfont"
	"github.com/npillmayer/vttasm/core/locate/resources"
	"github.com/pterm/pterm"
)

// --- compile ---------------------------------------------------------------

type compileCmd struct {
	Font       string `arg:"" help:"Font file or name of an installed font"`
	Output     string `short:"o" type:"path" help:"Write the compiled font to this file"`
	VTTVersion int    `name:"vtt-version" help:"Major VTT version of the sources (default: detect)"`
	CheckFlags bool   `help:"Check component flags against the glyph outlines"`
	Ship       bool   `help:"Remove VTT sources after compilation"`
	Workers    int    `short:"j" default:"4" help:"Number of glyphs compiled concurrently"`
	KeepGoing  bool   `short:"k" help:"Skip glyphs which fail to compile"`
	Functions  []int  `help:"Keep only these functions in the font program"`
}

func (c *compileCmd) Run(g *globals) error {
	f, path, err := loadFont(g.ctx, c.Font)
	if err != nil {
		return err
	}
	if !f.HasSources() {
		return core.Error(core.EMISSING, "font %s has no VTT sources", f.Name)
	}
	report, err := vtt.CompileInstructions(g.ctx, f, c.options(f))
	if err != nil {
		return err
	}
	printReport(report)
	return saveFont(f, path, c.Output)
}

func (c *compileCmd) options(f vtt.Font) vtt.Options {
	opts := vtt.DefaultOptions()
	opts.VTTVersion = vttVersion(f, c.VTTVersion)
	opts.CheckFlags = c.CheckFlags
	opts.Ship = c.Ship
	opts.KeepGoing = c.KeepGoing
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	if len(c.Functions) > 0 {
		opts.Functions = c.Functions
	}
	return opts
}

func printReport(report *vtt.Report) {
	pterm.Success.Printfln("compiled %d glyph programs", report.Compiled)
	for _, name := range report.Dropped {
		pterm.Warning.Printfln("glyph %s is not a composite, VTT source dropped", name)
	}
	for _, err := range report.Failed {
		pterm.Error.Println(err.Error())
	}
}

// --- composites ------------------------------------------------------------

type compositesCmd struct {
	Font       string   `arg:"" help:"Font file or name of an installed font"`
	Glyphs     []string `arg:"" optional:"" help:"Composite glyphs to update (default: all)"`
	Output     string   `short:"o" type:"path" help:"Write the font to this file"`
	VTTVersion int      `name:"vtt-version" help:"Major VTT version of the sources (default: detect)"`
}

func (c *compositesCmd) Run(g *globals) error {
	f, path, err := loadFont(g.ctx, c.Font)
	if err != nil {
		return err
	}
	glyphs := c.Glyphs
	if len(glyphs) == 0 {
		glyphs = compositeGlyphs(f)
	}
	if err = vtt.UpdateComposites(f, glyphs, vttVersion(f, c.VTTVersion)); err != nil {
		return err
	}
	pterm.Success.Printfln("updated %d composite glyphs", len(glyphs))
	return saveFont(f, path, c.Output)
}

func compositeGlyphs(f vtt.Font) []string {
	var glyphs []string
	for _, name := range f.GlyphOrder() {
		if _, ok := f.Components(name); ok {
			glyphs = append(glyphs, name)
		}
	}
	return glyphs
}

// --- normalize -------------------------------------------------------------

type normalizeCmd struct {
	Font   string `arg:"" help:"Font file or name of an installed font"`
	Output string `short:"o" type:"path" help:"Write the font to this file"`
}

func (c *normalizeCmd) Run(g *globals) error {
	f, path, err := loadFont(g.ctx, c.Font)
	if err != nil {
		return err
	}
	vtt.NormalizePrograms(f)
	return saveFont(f, path, c.Output)
}

// --- transfer --------------------------------------------------------------

type transferCmd struct {
	From   string `arg:"" help:"Font to take the VTT sources from"`
	To     string `arg:"" help:"Font to copy the VTT sources to"`
	Output string `short:"o" type:"path" help:"Write the font to this file"`
}

func (c *transferCmd) Run(g *globals) error {
	src, _, err := loadFont(g.ctx, c.From)
	if err != nil {
		return err
	}
	dst, path, err := loadFont(g.ctx, c.To)
	if err != nil {
		return err
	}
	n := transferSources(src, dst)
	pterm.Success.Printfln("copied %d VTT programs", n)
	return saveFont(dst, path, c.Output)
}

// transferSources copies the normalized VTT sources of src to the glyphs of
// dst with the same name. It returns the number of programs copied.
func transferSources(src, dst *vttfont.Font) int {
	vtt.NormalizePrograms(src)
	target := map[string]bool{"cvt": true, "prep": true, "fpgm": true}
	for _, name := range dst.GlyphOrder() {
		target[name] = true
	}
	n := 0
	for _, name := range append([]string{"cvt", "prep", "fpgm"}, src.GlyphOrder()...) {
		text, ok := src.ProgramText(name)
		talk, hasTalk := src.TalkText(name)
		if !ok && !hasTalk {
			continue
		}
		if !target[name] {
			tracer().Infof("WARNING: glyph %s not present in target font", name)
			continue
		}
		if ok {
			dst.SetProgramText(name, text)
			n++
		}
		if hasTalk {
			dst.SetTalkText(name, talk)
		}
	}
	return n
}

// --- disasm ----------------------------------------------------------------

type disasmCmd struct {
	Font     string   `arg:"" help:"Font file or name of an installed font"`
	Programs []string `arg:"" optional:"" help:"Glyphs, 'fpgm' or 'prep' (default: fpgm and prep)"`
}

func (c *disasmCmd) Run(g *globals) error {
	f, _, err := loadFont(g.ctx, c.Font)
	if err != nil {
		return err
	}
	programs := c.Programs
	if len(programs) == 0 {
		programs = []string{"fpgm", "prep"}
	}
	for _, name := range programs {
		listing, err := disassemble(f, name)
		if err != nil {
			pterm.Error.Printfln("%s: %v", name, err)
			continue
		}
		pterm.DefaultSection.Println(name)
		pterm.Println(listing)
	}
	return nil
}

func disassemble(f *vttfont.Font, name string) (string, error) {
	code, ok := f.Program(name)
	if !ok {
		return "", core.Error(core.EMISSING, "font has no program %s", name)
	}
	lines, err := ttasm.Disassemble(code)
	if err != nil {
		return "", err
	}
	return ttasm.Format(lines), nil
}

// --- fpgm ------------------------------------------------------------------

type fpgmCmd struct {
	Font      string `arg:"" help:"Font file or name of an installed font"`
	Functions []int  `help:"Print these functions as one font program"`
	Bytecode  bool   `short:"b" help:"Print the byte-code instead of the assembly"`
}

func (c *fpgmCmd) Run(g *globals) error {
	f, _, err := loadFont(g.ctx, c.Font)
	if err != nil {
		return err
	}
	asm, err := fontProgramAssembly(f)
	if err != nil {
		return err
	}
	if len(c.Functions) == 0 {
		nums, err := vtt.FunctionNumbers(asm)
		if err != nil {
			return err
		}
		pterm.Printfln("font program defines %d functions: %v", len(nums), nums)
		return nil
	}
	out, err := subsetFunctions(asm, c.Functions, c.Bytecode)
	if err != nil {
		return err
	}
	pterm.Println(out)
	return nil
}

// fontProgramAssembly returns the font program as TrueType assembly, from the
// VTT source if present, else disassembled from table 'fpgm'.
func fontProgramAssembly(f *vttfont.Font) (string, error) {
	if text, ok := f.ProgramText("fpgm"); ok {
		asm, _, err := vtt.TransformAssembly(text, "fpgm")
		return asm, err
	}
	code, ok := f.Program("fpgm")
	if !ok {
		return "", core.Error(core.EMISSING, "font %s has no font program", f.Name)
	}
	lines, err := ttasm.Disassemble(code)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func subsetFunctions(asm string, functions []int, bytecode bool) (string, error) {
	words, err := vtt.MergeFunctions([]string{asm}, functions)
	if err != nil {
		return "", err
	}
	prog, err := vtt.Compile(strings.Join(words, "\n"))
	if err != nil {
		return "", err
	}
	if bytecode {
		return fmt.Sprintf("% X", prog.Bytecode), nil
	}
	return prog.Listing()
}

// --- Helpers ---------------------------------------------------------------

func loadFont(ctx context.Context, name string) (*vttfont.Font, string, error) {
	loader := resources.ResolveFont(name)
	f, err := loader.FontWithContext(ctx)
	if err != nil {
		return nil, "", err
	}
	tracer().Infof("loaded font %s", f.Name)
	return f, loader.Path(), nil
}

func saveFont(f *vttfont.Font, path, output string) error {
	if output == "" {
		output = path
	}
	if output == "" {
		return core.Error(core.EINVALID, "font %s is built in, please name an output file", f.Name)
	}
	if err := f.Save(output); err != nil {
		return err
	}
	pterm.Info.Printfln("font written to %s", output)
	return nil
}

// vttVersion returns v if set, else the version found in the compiler
// stamps of the font's VTT sources, else 6.
func vttVersion(f vtt.Font, v int) int {
	if v > 0 {
		return v
	}
	for _, name := range []string{"fpgm", "prep", "cvt"} {
		if text, ok := f.ProgramText(name); ok {
			if version, found := vtt.DetectVTTVersion(text); found {
				tracer().Debugf("VTT version %d found in %s", version, name)
				return version
			}
		}
	}
	return vtt.DefaultOptions().VTTVersion
}
