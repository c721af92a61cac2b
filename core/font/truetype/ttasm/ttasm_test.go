package ttasm

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/vttasm/core"
	"github.com/stretchr/testify/assert"
)

func TestAssemblePush(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	var tests = []struct {
		asm  string
		code []byte
	}{
		{"PUSH[] 10 20\nSVTCA[0]", []byte{0xB1, 10, 20, 0x00}},
		{"PUSH[] 300", []byte{0xB8, 0x01, 0x2C}},
		{"PUSH[] -1", []byte{0xB8, 0xFF, 0xFF}},
		{"PUSH[] 300 1 2", []byte{0xB8, 0x01, 0x2C, 0xB1, 1, 2}},
		{"PUSH[] 300 1 400", []byte{0xBA, 0x01, 0x2C, 0x00, 0x01, 0x01, 0x90}},
		{"PUSH[] 1 300", []byte{0xB9, 0x00, 0x01, 0x01, 0x2C}},
		{"PUSH[] 1 2 3 4 5 6 7 8 9", []byte{0x40, 9, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"PUSHW[] -999", []byte{0xB8, 0xFC, 0x19}},
		{"PUSHB[] 1 2", []byte{0xB1, 1, 2}},
		{"NPUSHW[] 1 2", []byte{0x41, 2, 0x00, 0x01, 0x00, 0x02}},
		{"NPUSHB[] 7", []byte{0x40, 1, 7}},
	}
	for i, test := range tests {
		code, err := Assemble(test.asm)
		if err != nil {
			t.Fatalf("test #%d: %v", i, err)
		}
		t.Logf("%q => % X", test.asm, code)
		if !bytes.Equal(code, test.code) {
			t.Errorf("test #%d: expected % X, got % X", i, test.code, code)
		}
	}
}

func TestAssembleFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	code, err := Assemble("/* set vectors */ SVTCA[1] MIRP[10110] MDAP[1] IUP[0] ROUND[01] CALL[]")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []byte{0x01, 0xF6, 0x2F, 0x30, 0x69, 0x2B}, code)
}

func TestAssembleErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	for _, asm := range []string{
		"MIRP[1]",
		"SVTCA[]",
		"SVTX[0]",
		"SVTCA[0] 5",
		"5",
		"PUSH[]",
		"PUSH[] 70000",
		"PUSHB[] 256",
		"PUSHB[] 1 2 3 4 5 6 7 8 9",
		"SVTCA[0",
	} {
		_, err := Assemble(asm)
		if err == nil {
			t.Errorf("expected %q to fail", asm)
			continue
		}
		t.Logf("%q: %v", asm, err)
		assert.Equal(t, core.EINVALID, core.Code(err))
	}
}

func TestUnknownMnemonicSuggestion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	_, err := Assemble("DELTAP4[]")
	if err == nil {
		t.Fatal("expected DELTAP4 to be unknown")
	}
	assert.Contains(t, err.Error(), "DELTAP1")
}

func TestDisassembleRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	asm := "PUSH[] 1 2 300 -4 5 6 7 8 9 10 11 12\nFDEF[]\nSVTCA[1]\nMIRP[10110]\nIF[]\nPUSHW[] -999\nJMPR[]\nELSE[]\nNPUSHB[]\nEIF[]\nENDF[]"
	code, err := Assemble(asm)
	if err != nil {
		t.Fatal(err)
	}
	lines, err := Disassemble(code)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("disassembly:\n%s", Format(lines))
	again, err := Assemble(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(code, again) {
		t.Errorf("round trip failed:\n% X\n% X", code, again)
	}
}

func TestDisassembleErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	if _, err := Disassemble([]byte{0xB1, 0x01}); err == nil {
		t.Error("expected truncated PUSHB to fail")
	}
	if _, err := Disassemble([]byte{0x41}); err == nil {
		t.Error("expected truncated NPUSHW to fail")
	}
	if _, err := Disassemble([]byte{0x28}); err == nil {
		t.Error("expected opcode 0x28 to be undefined")
	}
}

func TestFormat(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	out := Format([]string{"PUSHB[] 0", "FDEF[]", "IF[]", "SVTCA[0]", "ELSE[]", "SVTCA[1]", "EIF[]", "ENDF[]"})
	expected := "PUSHB[]\n0\nFDEF[]\n  IF[]\n    SVTCA[0]\n  ELSE[]\n    SVTCA[1]\n  EIF[]\nENDF[]\n"
	assert.Equal(t, expected, out)
}

func TestComplete(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "vtt.asm")
	defer teardown()
	//
	assert.Equal(t, []string{"PUSH", "PUSHB", "PUSHW"}, Complete("push"))
	assert.Equal(t, []string{"SVTCA"}, Complete("SV"))
	assert.Empty(t, Complete("XYZ"))
	s := Complete("s")
	assert.Greater(t, len(s), 20)
	assert.True(t, sort.StringsAreSorted(s))
	for _, m := range s {
		_, ok := Lookup(m)
		assert.True(t, ok, m)
	}
	assert.Equal(t, []string{"MIRP"}, Complete("mirp"))
}
