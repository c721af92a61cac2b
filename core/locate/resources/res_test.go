package resources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/vttasm/core"
	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveFallbackFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.fonts")
	defer teardown()
	//
	loader := ResolveFont("Go Sans")
	f, err := loader.Font()
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatalf("font is nil, should be Go Sans")
	}
	if loader.Path() != "" {
		t.Errorf("expected built-in font to have no path, has %q", loader.Path())
	}
	t.Logf("font = %v", f)
}

func TestResolveFontFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.fonts")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	fpath, err := ResolveFontFile(path)
	if err != nil || fpath != path {
		t.Errorf("expected font file %s to resolve to itself, is %q (%v)", path, fpath, err)
	}
	loader := ResolveFont(path)
	if _, err := loader.Font(); err != nil {
		t.Error(err)
	}
	if loader.Path() != path {
		t.Errorf("expected font to be loaded from %s, is %q", path, loader.Path())
	}
}

func TestResolveMissingFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.fonts")
	defer teardown()
	//
	_, err := ResolveFontFile("no-such-font-4711")
	if err == nil {
		t.Fatalf("expected error for missing font")
	}
	if core.Code(err) != core.EMISSING {
		t.Errorf("expected error code EMISSING, have %d", core.Code(err))
	}
	if _, err = ResolveFont("no-such-font-4711").Font(); err == nil {
		t.Errorf("expected promise to deliver error for missing font")
	}
}

func TestResolveCancelled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.fonts")
	defer teardown()
	//
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loader := ResolveFont("Go Sans")
	if _, err := loader.FontWithContext(ctx); err == nil {
		t.Logf("font loading finished before cancellation")
	}
	if _, err := loader.Font(); err != nil {
		t.Errorf("expected font to be delivered after cancelled wait, got %v", err)
	}
}
