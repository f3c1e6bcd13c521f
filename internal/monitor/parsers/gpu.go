// Package parsers turns single lines of GPU tool output into utilization
// fractions. Every parser has the same shape: a line goes in, a value in
// [0,1] and ok=true come out, or ok=false when the line carries no reading.
// Callers scan output line by line and skip lines that return ok=false.
package parsers

import (
	"strconv"
	"strings"
)

// ROCmUsageMarker is the text rocm-smi --showuse prints before each GPU's busy percentage.
// Example line: "GPU[0]		: GPU use (%): 37"
const ROCmUsageMarker = "GPU use (%): "

// LineParser extracts a utilization fraction from one line of output.
type LineParser func(line string) (float64, bool)

// Marker returns a LineParser that looks for marker anywhere in the line and
// reads the integer percentage right after it. Leading blanks and a sign are
// accepted, trailing text after the digits is ignored ("37%" reads as 37).
func Marker(marker string) LineParser {
	return func(line string) (float64, bool) {
		if marker == "" {
			return 0, false
		}
		idx := strings.Index(line, marker)
		if idx < 0 {
			return 0, false
		}
		pct, ok := leadingInt(line[idx+len(marker):])
		if !ok {
			return 0, false
		}
		return float64(pct) / 100.0, true
	}
}

// ROCm parses rocm-smi --showuse output.
func ROCm(line string) (float64, bool) {
	return Marker(ROCmUsageMarker)(line)
}

// NvidiaUtilization parses one line of
// nvidia-smi --query-gpu=utilization.gpu --format=csv,noheader,nounits
//
// Each line is a bare number. Blank lines, "[N/A]" and anything else that
// isn't a number carry no reading.
func NvidiaUtilization(line string) (float64, bool) {
	s := strings.TrimSpace(line)
	if s == "" || s == "[N/A]" {
		return 0, false
	}

	// Older drivers keep the unit even with nounits
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	util, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return util / 100.0, true
}

// leadingInt reads an optionally signed run of digits at the start of s,
// skipping leading spaces and tabs.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
