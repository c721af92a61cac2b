package resources

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/vttasm/core"
	"github.com/npillmayer/vttasm/core/font"
	"github.com/npillmayer/vttasm/core/font/truetype/vttfont"
)

// NotFound returns an application error for a missing font.
func NotFound(name string) error {
	e := fmt.Errorf("resource missing: %v", name)
	return core.WrapError(e, core.EMISSING, "font not found: %s", name)
}

// ResolveFontFile finds the file for a font. name is either a path to a font
// file or the name of an installed font, e.g. "DejaVuSans" or "DejaVu Sans.ttf".
func ResolveFontFile(name string) (string, error) {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return name, nil
	}
	if fpath, err := findfont.Find(name); err == nil && fpath != "" {
		tracer().Debugf("%s is a system font", name)
		return fpath, nil
	}
	norm := font.NormalizeFontname(name)
	for _, fpath := range findfont.List() {
		if font.NormalizeFontname(fpath) == norm {
			tracer().Debugf("found system font %s for %s", fpath, name)
			return fpath, nil
		}
	}
	return "", NotFound(name)
}

// IsFallbackFont is true if name refers to the built-in font.
func IsFallbackFont(name string) bool {
	switch font.NormalizeFontname(name) {
	case "go_sans", "goregular", "go-regular":
		return true
	}
	return false
}

// --- Fonts -----------------------------------------------------------------

type fontPlusErr struct {
	font *vttfont.Font
	path string
	err  error
}

// FontPromise delivers a font loaded in the background.
type FontPromise interface {
	Font() (*vttfont.Font, error)
	FontWithContext(ctx context.Context) (*vttfont.Font, error)
	Path() string
}

type fontLoader struct {
	await func(ctx context.Context) (fontPlusErr, error)
}

func (loader fontLoader) Font() (*vttfont.Font, error) {
	return loader.FontWithContext(context.Background())
}

func (loader fontLoader) FontWithContext(ctx context.Context) (*vttfont.Font, error) {
	r, err := loader.await(ctx)
	if err != nil {
		return nil, err
	}
	return r.font, r.err
}

// Path returns the file the font has been loaded from. It blocks until
// loading has completed and is empty for the built-in font or on error.
func (loader fontLoader) Path() string {
	r, _ := loader.await(context.Background())
	return r.path
}

// ResolveFont loads a font given by path or by name, see ResolveFontFile.
func ResolveFont(name string) FontPromise {
	ch := make(chan fontPlusErr, 1)
	go func(ch chan<- fontPlusErr) {
		result := fontPlusErr{}
		if IsFallbackFont(name) {
			tracer().Debugf("using built-in font for %s", name)
			result.font, result.err = vttfont.New(font.FallbackFont())
		} else if result.path, result.err = ResolveFontFile(name); result.err == nil {
			result.font, result.err = vttfont.Load(result.path)
		}
		if result.err != nil {
			result.path = ""
		}
		ch <- result
		close(ch)
	}(ch)
	var mx sync.Mutex
	var r fontPlusErr
	var done bool
	return fontLoader{
		await: func(ctx context.Context) (fontPlusErr, error) {
			mx.Lock()
			defer mx.Unlock()
			if done {
				return r, nil
			}
			select {
			case <-ctx.Done():
				return fontPlusErr{}, ctx.Err()
			case r = <-ch:
				done = true
				return r, nil
			}
		},
	}
}
