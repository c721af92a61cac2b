package vtt

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
)

// SplitFunctions splits the tokens of a font program into one token span
// per function definition (FDEF … ENDF). Jump variables and labels are
// local to a function, so each span is transformed on its own.
func SplitFunctions(tokens []Token) ([][]Token, error) {
	var funcs [][]Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case strings.HasPrefix(t.Mnemonic, "FDEF"):
			body := []Token{t}
			closed := false
			for i++; i < len(tokens); i++ {
				body = append(body, tokens[i])
				if strings.HasPrefix(tokens[i].Mnemonic, "ENDF") {
					closed = true
					break
				}
			}
			if !closed {
				return nil, errAssert("line %d: FDEF without ENDF", t.Line)
			}
			funcs = append(funcs, body)
		case strings.HasPrefix(t.Mnemonic, "#PUSHON"):
			// some versions of VTT separate functions by #PUSHON
		default:
			return nil, errAssert("line %d: unexpected %s outside of function definition", t.Line, t.Mnemonic)
		}
	}
	return funcs, nil
}

// MergeFunctions joins assembled function definitions into a single
// program. Every function's number is taken from the push preceding its
// FDEF. If include is non-nil, only the functions listed are kept.
//
// The result is a list of assembly words: one PUSH of all function numbers
// in descending order, followed by the function bodies in ascending order.
func MergeFunctions(bodies []string, include []int) ([]string, error) {
	var words []string
	for _, body := range bodies {
		words = append(words, strings.Fields(body)...)
	}
	funcs := treemap.NewWithIntComparator()
	var stack []int
	for i := 0; i < len(words); {
		w := words[i]
		if strings.HasPrefix(w, "PUSH") || strings.HasPrefix(w, "NPUSH") {
			for i++; i < len(words); i++ {
				n, err := strconv.Atoi(words[i])
				if err != nil {
					break
				}
				stack = append(stack, n)
			}
			continue
		}
		if !strings.HasPrefix(w, "FDEF") {
			return nil, errAssert("unexpected %s in font program", w)
		}
		if len(stack) == 0 {
			return nil, errAssert("FDEF without function number")
		}
		num := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		body := []string{w}
		closed := false
		for i++; i < len(words) && !closed; i++ {
			body = append(body, words[i])
			closed = strings.HasPrefix(words[i], "ENDF")
		}
		if !closed {
			return nil, errAssert("FDEF without ENDF")
		}
		if _, exists := funcs.Get(num); exists {
			return nil, errAssert("function %d defined twice", num)
		}
		funcs.Put(num, body)
	}
	if len(stack) > 0 {
		return nil, errAssert("%d values pushed outside of function definitions", len(stack))
	}
	if include != nil {
		keep := make(map[int]bool, len(include))
		for _, n := range include {
			keep[n] = true
		}
		for _, k := range funcs.Keys() {
			if !keep[k.(int)] {
				funcs.Remove(k)
			}
		}
	}
	if funcs.Empty() {
		return nil, nil
	}
	result := []string{"PUSH[]"}
	keys := funcs.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		result = append(result, strconv.Itoa(keys[i].(int)))
	}
	for _, body := range funcs.Values() {
		result = append(result, body.([]string)...)
	}
	tracer().Debugf("merged %d functions", funcs.Size())
	return result, nil
}

// FunctionNumbers lists the numbers of the functions defined in an
// assembled font program, in ascending order.
func FunctionNumbers(assembly string) ([]int, error) {
	words, err := MergeFunctions([]string{assembly}, nil)
	if err != nil || len(words) == 0 {
		return nil, err
	}
	var nums []int
	for _, w := range words[1:] {
		n, err := strconv.Atoi(w)
		if err != nil {
			break
		}
		nums = append(nums, n)
	}
	for i, j := 0, len(nums)-1; i < j; i, j = i+1, j-1 {
		nums[i], nums[j] = nums[j], nums[i]
	}
	return nums, nil
}
