package vtt

import (
	"errors"
	"strings"
)

// Transform translates VTT tokens into TrueType assembly, resolving jumps.
// Component declarations found in the tokens are returned separately.
func Transform(tokens []Token) (string, []Component, error) {
	stream, err := BuildRows(tokens)
	if err != nil {
		return "", nil, err
	}
	var enc Encoder
	if err = ResolveJumps(stream, enc); err != nil {
		return "", nil, err
	}
	return enc.Assembly(stream.Rows), stream.Components, nil
}

// TransformAssembly translates a VTT program into TrueType assembly.
// The font program ("fpgm") is transformed function by function, with the
// functions merged again afterwards. Whitespace-only input yields an empty
// assembly.
func TransformAssembly(text, name string) (string, []Component, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, nil
	}
	tokens, err := Tokenize(text)
	if err != nil {
		return "", nil, err
	}
	if name != "fpgm" {
		return Transform(tokens)
	}
	funcs, err := SplitFunctions(tokens)
	if err != nil {
		return "", nil, err
	}
	bodies := make([]string, len(funcs))
	for i, f := range funcs {
		if bodies[i], _, err = Transform(f); err != nil {
			return "", nil, err
		}
	}
	merged, err := MergeFunctions(bodies, nil)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(merged, "\n"), nil, nil
}

// MakeProgram compiles a VTT program to TrueType byte-code.
func MakeProgram(text, name string) (*CompiledProgram, error) {
	prog, _, err := MakeGlyphProgram(text, name)
	return prog, err
}

// MakeGlyphProgram compiles a glyph's VTT program to TrueType byte-code,
// returning the components it declares as well.
func MakeGlyphProgram(text, name string) (*CompiledProgram, []Component, error) {
	asm, comps, err := TransformAssembly(text, name)
	if err != nil {
		logProgramError(name, err)
		return nil, nil, err
	}
	prog, err := Compile(asm)
	if err != nil {
		logProgramError(name, err)
		return nil, nil, err
	}
	return prog, comps, nil
}

func logProgramError(name string, err error) {
	if name != "" {
		name = "'" + name + "' "
	}
	var perr ParseError
	if errors.As(err, &perr) {
		tracer().Errorf("error parsing %sprogram, line %d:\n%s\n%s", name, perr.Line, perr.Marked(), perr.Msg)
		return
	}
	tracer().Errorf("error compiling %sprogram: %v", name, err)
}
