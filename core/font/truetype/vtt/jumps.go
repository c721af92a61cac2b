package vtt

// JumpVariable is a symbolic relative jump offset. Its value is pushed by
// #PUSH (at Positions: row index → value indices within the row) and it is
// assigned a label by exactly one jump instruction at row FromOffset.
type JumpVariable struct {
	Name           string
	Positions      map[int][]int
	ToLabel        string
	FromOffset     int  // -1 if no jump refers to the variable
	RelativeOffset *int // nil until resolved
}

// SpanEncoder encodes a span of rows to byte-code.
type SpanEncoder interface {
	EncodeSpan(rows []Row) ([]byte, error)
}

// ResolveJumps computes the relative offset of every jump variable and
// patches it into every push row referencing the variable.
//
// The offset is the size of the byte-code between the jump instruction and
// its label, negative for backward jumps. Sizes are measured with all
// jump variables still holding placeholders. This is exact as jump
// variables are always pushed as words.
func ResolveJumps(stream *Stream, enc SpanEncoder) error {
	vars := stream.JumpVariables()
	for _, v := range vars {
		if v.FromOffset < 0 {
			return UnresolvedLabelError{Variable: v.Name, Msg: "variable is pushed but never assigned by a jump"}
		}
		to, ok := stream.Labels[v.ToLabel]
		if !ok {
			return UnresolvedLabelError{Variable: v.Name, Label: v.ToLabel, Msg: "label is not defined"}
		}
		if to == v.FromOffset {
			return errAssert("jump variable '%s' jumps to itself", v.Name)
		}
		start, end, sign := v.FromOffset, to, 1
		if to < v.FromOffset {
			start, end, sign = to, v.FromOffset, -1
		}
		code, err := enc.EncodeSpan(stream.Rows[start:end])
		if err != nil {
			return err
		}
		offset := sign * len(code)
		v.RelativeOffset = &offset
		tracer().Debugf("jump variable %s: rows %d→%d (%s), offset %d", v.Name, v.FromOffset, to, v.ToLabel, offset)
	}
	for _, v := range vars {
		for row, columns := range v.Positions {
			group, ok := stream.Rows[row].(*PushGroup)
			if !ok {
				return errAssert("jump variable '%s' recorded at row %d, which is not a push", v.Name, row)
			}
			for _, col := range columns {
				group.Values[col] = Literal(*v.RelativeOffset)
			}
		}
	}
	return nil
}
