package vtt

import (
	"regexp"
	"strconv"
)

var (
	blockCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cvtEntryRE     = regexp.MustCompile(`(?m)^\s*([0-9]+)\s*:\s*(-?[0-9]+)`)
)

// ParseCVT reads the control values from VTT's control program, where they
// are listed as "INDEX: VALUE" lines. Indexes not listed get value 0.
func ParseCVT(text string) ([]int16, error) {
	text = blockCommentRE.ReplaceAllString(text, "")
	var values []int16
	for _, m := range cvtEntryRE.FindAllStringSubmatch(text, -1) {
		index, err := strconv.Atoi(m[1])
		if err != nil || index > 0xFFFF {
			return nil, errAssert("control value index %s out of range", m[1])
		}
		value, err := strconv.ParseInt(m[2], 10, 16)
		if err != nil {
			return nil, errAssert("control value %d: %s out of range", index, m[2])
		}
		for len(values) <= index {
			values = append(values, 0)
		}
		values[index] = int16(value)
	}
	return values, nil
}
