package monitor

import (
	"github.com/rileyhilliard/gpugraph/internal/monitor/parsers"
)

// SourceKind names where utilization readings come from.
type SourceKind string

const (
	// SourceROCm reads rocm-smi --showuse.
	SourceROCm SourceKind = "rocm"
	// SourceNvidia reads nvidia-smi's CSV query output.
	SourceNvidia SourceKind = "nvidia"
	// SourceNVML talks to the NVIDIA management library directly.
	SourceNVML SourceKind = "nvml"
	// SourceCommand runs a user command and scans for a user marker.
	SourceCommand SourceKind = "command"
)

// Sources lists every known source kind, in the order shown in help text.
var Sources = []SourceKind{SourceROCm, SourceNvidia, SourceNVML, SourceCommand}

// ParseSourceKind converts a config string to a SourceKind.
// Returns false for anything it doesn't recognise.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch SourceKind(s) {
	case SourceROCm, SourceNvidia, SourceNVML, SourceCommand:
		return SourceKind(s), true
	default:
		return "", false
	}
}

// BuildSourceCommand returns the shell command for a text-based source.
// override replaces the built-in command when non-empty.
// stderr is discarded: only stdout is scanned.
func BuildSourceCommand(kind SourceKind, override string) string {
	if override != "" {
		return override
	}
	switch kind {
	case SourceROCm:
		return buildROCmCommand()
	case SourceNvidia:
		return buildNvidiaCommand()
	default:
		return ""
	}
}

// buildROCmCommand returns the rocm-smi query. Output has one
// "GPU use (%): N" line per device, in enumeration order.
func buildROCmCommand() string {
	return `rocm-smi --showuse 2>/dev/null`
}

// buildNvidiaCommand returns the nvidia-smi query. Output has one bare
// percentage per line, one line per device.
func buildNvidiaCommand() string {
	return `nvidia-smi --query-gpu=utilization.gpu --format=csv,noheader,nounits 2>/dev/null`
}

// LineParserFor returns the line parser for a text-based source.
// marker is only used by SourceCommand.
func LineParserFor(kind SourceKind, marker string) parsers.LineParser {
	switch kind {
	case SourceNvidia:
		return parsers.NvidiaUtilization
	case SourceCommand:
		return parsers.Marker(marker)
	default:
		return parsers.ROCm
	}
}
