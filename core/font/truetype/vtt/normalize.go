package vtt

import (
	"regexp"
	"strconv"
)

var (
	guiGeneratedRE = regexp.MustCompile(`/\* GUI generated .*?\*/[\r\n]*`)
	vttCompilerRE  = regexp.MustCompile(`/\* (VTT [0-9]+\.[0-9][0-9A-Z]* compiler) .*?\*/[\r\n]*`)
	glyphIndexRE   = regexp.MustCompile(`/\* (?:TT|VTTTalk) glyph [0-9]+.*?\*/[\r\n]*`)
	vttVersionRE   = regexp.MustCompile(`/\* VTT ([0-9]+)\.[0-9][0-9A-Z]* compiler`)
)

// NormalizeExtraProgram removes the time stamp from the compiler comment
// VTT puts into the control program, pre-program and font program.
func NormalizeExtraProgram(text string) string {
	return vttCompilerRE.ReplaceAllString(text, "/* $1 */\n")
}

// NormalizeGlyphProgram removes time stamps and glyph indexes from the
// comments VTT generates for glyph programs. With talk set, text is a
// VTTTalk source, where comments from the GUI are removed as well.
func NormalizeGlyphProgram(text string, talk bool) string {
	if talk {
		text = guiGeneratedRE.ReplaceAllString(text, "")
	}
	text = vttCompilerRE.ReplaceAllString(text, "/* $1 */\n")
	return glyphIndexRE.ReplaceAllString(text, "")
}

// TalkSources is implemented by fonts which give access to VTTTalk
// sources in addition to the glyph programs.
type TalkSources interface {
	TalkText(glyph string) (string, bool)
	SetTalkText(glyph, text string)
	ClearExtraTalk()
}

// NormalizePrograms strips volatile comments from all VTT sources of
// a font, so that the sources may be kept under version control.
func NormalizePrograms(font Font) {
	for _, name := range []string{"cvt", "prep", "fpgm"} {
		if text, ok := font.ProgramText(name); ok {
			font.SetProgramText(name, NormalizeExtraProgram(text))
		}
	}
	talks, hasTalk := font.(TalkSources)
	for _, name := range font.GlyphOrder() {
		if hasTalk {
			if text, ok := talks.TalkText(name); ok {
				talks.SetTalkText(name, NormalizeGlyphProgram(text, true))
			}
		}
		if text, ok := font.ProgramText(name); ok {
			font.SetProgramText(name, NormalizeGlyphProgram(text, false))
		}
	}
	if hasTalk {
		talks.ClearExtraTalk()
	}
}

// SubsetPrograms removes the sources of all glyphs not listed in keep.
func SubsetPrograms(programs map[string]string, keep []string) {
	k := make(map[string]bool, len(keep))
	for _, name := range keep {
		k[name] = true
	}
	for name := range programs {
		if !k[name] {
			delete(programs, name)
		}
	}
}

// DetectVTTVersion finds the major version of VTT from the compiler
// comment of a VTT source, e.g. "/* VTT 6.01 compiler … */".
func DetectVTTVersion(text string) (int, bool) {
	m := vttVersionRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	return v, err == nil
}
