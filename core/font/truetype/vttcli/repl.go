package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/vttasm/core/font/truetype/ttasm"
	"github.com/npillmayer/vttasm/core/font/truetype/vtt"
	"github.com/pterm/pterm"
)

type replCmd struct {
	Mode    string `default:"vtt" enum:"vtt,tt" help:"Input language: VTT assembly or TrueType assembly"`
	History string `type:"path" help:"File to keep the input history in"`
}

func (c *replCmd) Run(g *globals) error {
	repl, err := readline.NewEx(&readline.Config{
		Prompt:       prompt(c.Mode),
		HistoryFile:  c.History,
		AutoComplete: mnemonicCompleter{},
	})
	if err != nil {
		return err
	}
	defer repl.Close()
	pterm.Info.Println("Welcome to the VTT assembler") // colored welcome message
	pterm.Info.Println("Quit with <ctrl>D")           // inform user how to stop the CLI
	intp := &Intp{repl: repl, mode: c.Mode}
	intp.REPL() // go into interactive mode
	return nil
}

func prompt(mode string) string {
	return mode + " > "
}

// Intp is our interpreter object
type Intp struct {
	repl *readline.Instance
	mode string // "vtt" or "tt"
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out, quit, err := intp.eval(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
		if out != "" {
			pterm.Println(out)
		}
	}
	pterm.Info.Println("Good bye!")
}

// eval executes a command (":…") or assembles a line of input. Instructions
// may be separated by ';'.
func (intp *Intp) eval(line string) (string, bool, error) {
	if strings.HasPrefix(line, ":") {
		cmd, arg, _ := strings.Cut(line[1:], " ")
		switch cmd {
		case "quit", "q":
			return "", true, nil
		case "vtt", "tt":
			intp.mode = cmd
			if intp.repl != nil {
				intp.repl.SetPrompt(prompt(cmd))
			}
			return "", false, nil
		case "dis":
			out, err := disassembleHex(arg)
			return out, false, err
		default:
			return help(), false, nil
		}
	}
	text := strings.ReplaceAll(line, ";", "\n")
	if intp.mode == "tt" {
		code, err := ttasm.Assemble(text)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("code: % X", code), false, nil
	}
	prog, err := vtt.MakeProgram(text, "")
	if err != nil {
		return "", false, err
	}
	asm := strings.Join(strings.Fields(strings.ReplaceAll(prog.Assembly, "\n", " ; ")), " ")
	return fmt.Sprintf("asm:  %s\ncode: % X", asm, prog.Bytecode), false, nil
}

func disassembleHex(arg string) (string, error) {
	code, err := hex.DecodeString(strings.Join(strings.Fields(arg), ""))
	if err != nil {
		return "", err
	}
	lines, err := ttasm.Disassemble(code)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(ttasm.Format(lines), "\n"), nil
}

func help() string {
	return `Enter VTT assembly (mode vtt) or TrueType assembly (mode tt),
instructions separated by ';', e.g.  SRP0[], 3; MDRP[m>RBl], 7

  :vtt        switch to VTT assembly
  :tt         switch to TrueType assembly
  :dis HEX    disassemble byte-code, e.g. ":dis B0 03 10"
  :quit       leave (or <ctrl>D)

<tab> completes instruction names.`
}

// mnemonicCompleter completes the instruction name left of the cursor.
type mnemonicCompleter struct{}

func (mnemonicCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && isMnemonicRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}
	var candidates [][]rune
	for _, m := range ttasm.Complete(prefix) {
		candidates = append(candidates, []rune(m[len(prefix):]+"["))
	}
	return candidates, len(prefix)
}

func isMnemonicRune(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}
