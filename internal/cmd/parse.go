package cmd

import (
	"strconv"
	"strings"
)

// parseSample extracts values from one line of input. A line is either a
// bare number, recorded under defaultName, or whitespace- or
// comma-separated name=value pairs. ok is false when the line is not
// numeric input at all; such lines are passed through as ordinary output.
func parseSample(line, defaultName string) (values map[string]float64, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	if v, err := strconv.ParseFloat(line, 64); err == nil {
		return map[string]float64{defaultName: v}, true
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	values = make(map[string]float64, len(fields))
	for _, field := range fields {
		name, raw, found := strings.Cut(field, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, false
		}
		values[name] = v
	}
	return values, true
}
