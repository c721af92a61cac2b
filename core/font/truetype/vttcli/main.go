/*
Command vttcli compiles the VTT sources of TrueType fonts.

	vttcli compile MyFont.ttf -o MyFont-hinted.ttf --ship
	vttcli composites MyFont.ttf Adieresis
	vttcli transfer MyFont-Hinted.ttf MyFont.ttf
	vttcli disasm MyFont.ttf fpgm A
	vttcli fpgm MyFont.ttf --functions 0,1,7
	vttcli repl

Fonts are given as file paths or as names of installed fonts. Without option
--output, modified fonts replace the font file.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'vtt.cli'
func tracer() tracing.Trace {
	return tracing.Select("vtt.cli")
}

var cli struct {
	Trace string `short:"t" default:"Error" enum:"Debug,Info,Error" help:"Trace level [Debug|Info|Error]"`

	Compile    compileCmd    `cmd:"" help:"Compile the VTT sources of a font"`
	Composites compositesCmd `cmd:"" help:"Write the components of composite glyphs into their VTT sources"`
	Normalize  normalizeCmd  `cmd:"" help:"Remove time stamps and glyph indexes from VTT sources"`
	Transfer   transferCmd   `cmd:"" help:"Copy VTT sources from one font to another"`
	Disasm     disasmCmd     `cmd:"" help:"Disassemble compiled programs of a font"`
	Fpgm       fpgmCmd       `cmd:"" help:"List or extract the functions of the font program"`
	Repl       replCmd       `cmd:"" help:"Assemble instructions interactively"`
}

type globals struct {
	ctx context.Context
}

func main() {
	initDisplay()
	ctx := kong.Parse(&cli,
		kong.Name("vttcli"),
		kong.Description("Assembler for Visual TrueType sources"),
		kong.UsageOnError(),
	)
	if err := initTracing(cli.Trace); err != nil {
		fmt.Printf("error configuring tracing: %v\n", err)
		os.Exit(1)
	}
	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := ctx.Run(&globals{ctx: sigctx})
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
}

func initTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace.vtt.cli":   level,
		"trace.vtt.asm":   level,
		"trace.vtt.fonts": level,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	tracer().Infof("Trace level is %s", level)
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
