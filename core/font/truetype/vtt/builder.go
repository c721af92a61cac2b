package vtt

import (
	"sort"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// Row is an element of an instruction stream: either an *Instruction or a
// *PushGroup.
type Row interface {
	isRow()
}

// Instruction is a TrueType instruction without inline data.
type Instruction struct {
	Mnemonic string
	Flags    string
}

// PushGroup pushes values onto the stack. Wide groups are encoded with
// PUSHW/NPUSHW regardless of their values, other groups are left to the
// encoder's push optimization. An empty group occupies a row without
// producing any code.
type PushGroup struct {
	Wide   bool
	Values []StackItem
}

func (*Instruction) isRow() {}
func (*PushGroup) isRow()   {}

// Stream is the result of building rows from a token sequence.
// Row indices are keys for Labels and for JumpVariable positions.
type Stream struct {
	Rows       []Row
	Components []Component
	Labels     map[string]int
	Jumps      map[string]*JumpVariable
}

// JumpVariables returns the jump variables sorted by name.
func (s *Stream) JumpVariables() []*JumpVariable {
	names := make([]string, 0, len(s.Jumps))
	for name := range s.Jumps {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]*JumpVariable, len(names))
	for i, name := range names {
		vars[i] = s.Jumps[name]
	}
	return vars
}

// builderState holds everything which changes while walking the tokens.
type builderState struct {
	stream       *Stream
	scopes       *arraystack.Stack   // row indices of reserved push slots
	pending      map[int][]StackItem // values per push slot, last pushed first
	pushOn       bool
	useMyMetrics bool
	scaling      OffsetScaling
}

func newBuilderState() *builderState {
	st := &builderState{
		stream: &Stream{
			Rows:   []Row{&PushGroup{}},
			Labels: make(map[string]int),
			Jumps:  make(map[string]*JumpVariable),
		},
		scopes:  arraystack.New(),
		pending: make(map[int][]StackItem),
		pushOn:  true,
	}
	st.scopes.Push(0)
	return st
}

// BuildRows converts tokens into a row stream. Operands of instructions
// are collected and pushed in one group at the start of the innermost
// #BEGIN/#END scope (or of the program), jump variables get wide
// placeholder pushes, delta exceptions are expanded and composite
// pseudo-instructions are moved to the stream's component list.
//
// Jump offsets are not resolved by BuildRows, see ResolveJumps.
func BuildRows(tokens []Token) (*Stream, error) {
	st := newBuilderState()
	for _, t := range tokens {
		if err := st.step(t); err != nil {
			return nil, err
		}
	}
	if st.scopes.Size() != 1 {
		return nil, UnbalancedScopeError{Open: st.scopes.Size() - 1}
	}
	st.flush(0)
	tracer().Debugf("built %d rows, %d labels, %d jump variables, %d components",
		len(st.stream.Rows), len(st.stream.Labels), len(st.stream.Jumps), len(st.stream.Components))
	return st.stream, nil
}

func (st *builderState) pos() int {
	return len(st.stream.Rows)
}

func (st *builderState) appendRow(r Row) {
	st.stream.Rows = append(st.stream.Rows, r)
}

func (st *builderState) currentScope() int {
	top, _ := st.scopes.Peek()
	return top.(int)
}

// prepend puts a value in front of the current scope's push buffer, i.e.
// it will be pushed before every value collected so far.
func (st *builderState) prepend(item StackItem) {
	slot := st.currentScope()
	st.pending[slot] = append(st.pending[slot], item)
}

// flush installs the collected values of a scope as a push group at the
// scope's reserved slot.
func (st *builderState) flush(slot int) {
	buf := st.pending[slot]
	delete(st.pending, slot)
	if len(buf) == 0 {
		return
	}
	values := make([]StackItem, len(buf))
	for i, item := range buf {
		values[len(buf)-1-i] = item
	}
	st.stream.Rows[slot] = &PushGroup{Values: values}
}

func (st *builderState) jumpVariable(name string) *JumpVariable {
	v, ok := st.stream.Jumps[name]
	if !ok {
		v = &JumpVariable{Name: name, Positions: make(map[int][]int), FromOffset: -1}
		st.stream.Jumps[name] = v
	}
	return v
}

func (st *builderState) step(t Token) error {
	switch {
	case t.Mnemonic == "OVERLAP":
		// ignored by VTT
		return nil
	case t.Mnemonic == "USEMYMETRICS":
		st.useMyMetrics = true
		return nil
	case t.Mnemonic == "SCALEDCOMPONENTOFFSET":
		st.scaling = Scaled
		return nil
	case t.Mnemonic == "UNSCALEDCOMPONENTOFFSET":
		st.scaling = Unscaled
		return nil
	case t.Mnemonic == "OFFSET" || t.Mnemonic == "ANCHOR":
		return st.component(t)
	case t.IsLabel():
		label := strings.TrimSuffix(t.Mnemonic, ":")
		if _, exists := st.stream.Labels[label]; exists {
			return UnresolvedLabelError{Label: label, Msg: "label defined twice"}
		}
		st.stream.Labels[label] = st.pos()
		return nil
	case t.IsPragma():
		return st.pragma(t)
	case t.IsDelta():
		if err := st.delta(&t); err != nil {
			return err
		}
	case isJumpInstruction(t.Mnemonic) && t.Assign != nil:
		v := st.jumpVariable(t.Assign.Variable)
		if v.FromOffset >= 0 {
			return UnresolvedLabelError{Variable: v.Name, Label: t.Assign.Label,
				Msg: "variable assigned by more than one jump"}
		}
		v.ToLabel, v.FromOffset = t.Assign.Label, st.pos()
	default:
		if err := st.operands(t); err != nil {
			return err
		}
	}
	st.appendRow(&Instruction{Mnemonic: t.Mnemonic, Flags: t.Flags})
	return nil
}

func (st *builderState) operands(t Token) error {
	if !st.pushOn {
		if len(t.Items) > 0 {
			return errAssert("line %d: %s has operands while push is off", t.Line, t.Mnemonic)
		}
		return nil
	}
	for i := len(t.Items) - 1; i >= 0; i-- {
		if ref, ok := t.Items[i].(JumpRef); ok {
			return errAssert("line %d: jump variable '%s' must be pushed with #PUSH", t.Line, ref)
		}
		st.prepend(t.Items[i])
	}
	return nil
}

func (st *builderState) pragma(t Token) error {
	switch t.Mnemonic {
	case "#PUSHON":
		st.pushOn = true
	case "#PUSHOFF":
		st.pushOn = false
	case "#BEGIN":
		st.scopes.Push(st.pos())
		st.appendRow(&PushGroup{})
	case "#END":
		if st.scopes.Size() <= 1 {
			return UnbalancedScopeError{Open: -1}
		}
		slot, _ := st.scopes.Pop()
		st.flush(slot.(int))
	case "#PUSH":
		return st.explicitPush(t)
	default:
		return ParseError{Line: t.Line, Col: t.Col, Msg: "unknown pragma " + t.Mnemonic}
	}
	return nil
}

// explicitPush emits one push row per run of literals or jump variables.
// Jump variables are pushed as words with a placeholder value, so that the
// size of the row does not change when the offset gets patched in.
func (st *builderState) explicitPush(t Token) error {
	if len(t.Items) == 0 {
		return errAssert("line %d: #PUSH without values", t.Line)
	}
	var group *PushGroup
	for i, item := range t.Items {
		_, isRef := item.(JumpRef)
		if i == 0 || group.Wide != isRef {
			group = &PushGroup{Wide: isRef}
			st.appendRow(group)
		}
		if isRef {
			v := st.jumpVariable(string(item.(JumpRef)))
			row := st.pos() - 1
			v.Positions[row] = append(v.Positions[row], len(group.Values))
		}
		group.Values = append(group.Values, item)
	}
	return nil
}

// delta expands the delta exceptions of a token into pushed operands:
// pairs of point and encoded (ppem, step) followed by the number of pairs.
func (st *builderState) delta(t *Token) error {
	if !st.pushOn {
		return errAssert("line %d: %s while push is off", t.Line, t.Mnemonic)
	}
	if len(t.Deltas) == 0 {
		return errAssert("line %d: %s without deltas", t.Line, t.Mnemonic)
	}
	if len(t.Items) > 0 {
		return errAssert("line %d: %s takes no operands besides deltas", t.Line, t.Mnemonic)
	}
	base := 0
	if strings.HasPrefix(t.Mnemonic, "DELTA") {
		switch t.Mnemonic[len(t.Mnemonic)-1] {
		case '1':
			base = 9
		case '2':
			base = 25
		case '3':
			base = 41
		default:
			return ParseError{Line: t.Line, Col: t.Col, Msg: "unknown delta instruction " + t.Mnemonic}
		}
	}
	st.prepend(Literal(len(t.Deltas)))
	type exception struct{ ppem, step int }
	var points []int
	byPoint := make(map[int][]exception)
	for i := len(t.Deltas) - 1; i >= 0; i-- {
		d := t.Deltas[i]
		if _, seen := byPoint[d.Point]; !seen {
			points = append(points, d.Point)
		}
		byPoint[d.Point] = append(byPoint[d.Point], exception{d.RelPPEM, d.Step})
	}
	for _, p := range points {
		exceptions := byPoint[p]
		sort.Slice(exceptions, func(i, j int) bool {
			if exceptions[i].ppem != exceptions[j].ppem {
				return exceptions[i].ppem > exceptions[j].ppem
			}
			return exceptions[i].step > exceptions[j].step
		})
		for _, e := range exceptions {
			selector := e.step + 8 // -8 → 0, …, -1 → 7
			if e.step > 0 {
				selector = e.step + 7 // 1 → 8, …, 8 → 15
			}
			st.prepend(Literal(p))
			st.prepend(Literal((e.ppem-base)<<4 | selector))
		}
	}
	if strings.HasPrefix(t.Mnemonic, "DLT") {
		t.Mnemonic = "DELTA" + strings.TrimPrefix(t.Mnemonic, "DLT")
	}
	return nil
}

func (st *builderState) component(t Token) error {
	if len(t.Items) != 3 {
		return errAssert("line %d: %s needs 3 operands, has %d", t.Line, t.Mnemonic, len(t.Items))
	}
	var v [3]int
	for i, item := range t.Items {
		lit, ok := item.(Literal)
		if !ok {
			return errAssert("line %d: %s operand '%s' is not a number", t.Line, t.Mnemonic, item)
		}
		v[i] = int(lit)
	}
	var c Component
	if t.Mnemonic == "OFFSET" {
		c = &OffsetComponent{
			Index: v[0], X: v[1], Y: v[2],
			RoundToGrid:  t.Flags == "1",
			UseMyMetrics: st.useMyMetrics,
			Scaling:      st.scaling,
		}
	} else {
		c = &AnchorComponent{
			Index: v[0], First: v[1], Second: v[2],
			UseMyMetrics: st.useMyMetrics,
			Scaling:      st.scaling,
		}
	}
	st.stream.Components = append(st.stream.Components, c)
	st.useMyMetrics = false
	st.scaling = ScalingUnset
	return nil
}
