package vtt

import (
	"fmt"

	"github.com/npillmayer/vttasm/core"
)

// ParseError is returned by the tokenizer for malformed VTT assembly.
type ParseError struct {
	Line int
	Col  int
	Msg  string
	Text string // the offending source line
}

func (e ParseError) Error() string {
	return fmt.Sprintf("[%d] VTT assembly, line %d col %d: %s", core.EPARSE, e.Line, e.Col, e.Msg)
}

func (e ParseError) ErrorCode() int { return core.EPARSE }

func (e ParseError) UserMessage() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// Marked returns the offending source line with a marker at the error column.
func (e ParseError) Marked() string {
	col := e.Col
	if col < 1 || col > len(e.Text)+1 {
		return e.Text
	}
	return e.Text[:col-1] + ">!<" + e.Text[col-1:]
}

// UnresolvedLabelError is returned if a jump cannot be resolved, i.e. if a
// jump targets an undefined label, or if a jump variable is pushed but not
// assigned by exactly one jump.
type UnresolvedLabelError struct {
	Variable string
	Label    string
	Msg      string
}

func (e UnresolvedLabelError) Error() string {
	return fmt.Sprintf("[%d] %s", core.ELABEL, e.UserMessage())
}

func (e UnresolvedLabelError) ErrorCode() int { return core.ELABEL }

func (e UnresolvedLabelError) UserMessage() string {
	if e.Label != "" {
		return fmt.Sprintf("jump variable '%s' to label '%s': %s", e.Variable, e.Label, e.Msg)
	}
	return fmt.Sprintf("jump variable '%s': %s", e.Variable, e.Msg)
}

// UnbalancedScopeError is returned if #BEGIN and #END do not match.
type UnbalancedScopeError struct {
	Open int // number of scopes left open; negative for an unmatched #END
}

func (e UnbalancedScopeError) Error() string {
	return fmt.Sprintf("[%d] %s", core.ESCOPE, e.UserMessage())
}

func (e UnbalancedScopeError) ErrorCode() int { return core.ESCOPE }

func (e UnbalancedScopeError) UserMessage() string {
	if e.Open < 0 {
		return "#END without matching #BEGIN"
	}
	return fmt.Sprintf("%d #BEGIN without matching #END", e.Open)
}

// InvalidCompositeError is returned if the composite pseudo-instructions of
// a glyph program do not match the components of the glyph outline.
type InvalidCompositeError struct {
	Glyph     string
	Component int // -1 if the error concerns the glyph as a whole
	Msg       string
}

func (e InvalidCompositeError) Error() string {
	return fmt.Sprintf("[%d] %s", core.ECOMPOSITE, e.UserMessage())
}

func (e InvalidCompositeError) ErrorCode() int { return core.ECOMPOSITE }

func (e InvalidCompositeError) UserMessage() string {
	if e.Component < 0 {
		return fmt.Sprintf("'%s' %s", e.Glyph, e.Msg)
	}
	return fmt.Sprintf("component %d in '%s' %s", e.Component, e.Glyph, e.Msg)
}

var (
	_ core.AppError = ParseError{}
	_ core.AppError = UnresolvedLabelError{}
	_ core.AppError = UnbalancedScopeError{}
	_ core.AppError = InvalidCompositeError{}
)

// errAssert reports a violated input contract, e.g. operands on an
// instruction which is not pushed.
func errAssert(format string, v ...interface{}) error {
	return core.Error(core.EASSERT, format, v...)
}
