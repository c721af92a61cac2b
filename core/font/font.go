/*
Package font is for loading fonts and naming their glyphs.

A "scalable font" is a font, i.e. a variant of a typeface with a certain weight,
slant, etc., loaded from a font file. An example is "Helvetica regular".
Package font wraps the font's binary data together with its representation as
an sfnt.Font.

Hinting sources refer to glyphs by name, whereas fonts store glyphs by index.
GlyphOrder establishes the mapping, from the glyph names of table 'post'.

----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software nor the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package font

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// T traces to a global core-tracer.
func T() tracing.Trace {
	return gtrace.CoreTracer
}

type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container

	glyphOrder     []string
	glyphOrderOnce sync.Once
}

func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return
}

// GlyphOrder returns the names of the glyphs of the font, indexed by glyph ID.
//
// Names are taken from table 'post'. Glyphs without a name are named after
// their index, e.g. "glyph00012". If a name occurs more than once, later
// occurences get a suffix "#1", "#2", ….
func (sf *ScalableFont) GlyphOrder() []string {
	sf.glyphOrderOnce.Do(func() {
		sf.glyphOrder = makeGlyphOrder(sf.SFNT)
	})
	return sf.glyphOrder
}

func makeGlyphOrder(f *sfnt.Font) []string {
	var buf sfnt.Buffer
	n := f.NumGlyphs()
	order := make([]string, n)
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		name, err := f.GlyphName(&buf, sfnt.GlyphIndex(i))
		if err != nil || name == "" {
			name = fmt.Sprintf("glyph%05d", i)
		}
		if cnt, ok := seen[name]; ok {
			seen[name] = cnt + 1
			T().Debugf("glyph name %s occurs more than once", name)
			name = fmt.Sprintf("%s#%d", name, cnt+1)
		} else {
			seen[name] = 0
		}
		order[i] = name
	}
	return order
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}

// ---------------------------------------------------------------------------

// NormalizeFontname produces a lower case font name without spaces and
// without a file extension, e.g. "Go Sans.ttf" → "go_sans".
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = filepath.Base(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	return fname
}
