package monitor

import (
	"fmt"
	"strings"
)

// FormatTooltip returns one "GPU <i>: <pct>%" line per enabled slot, in slot
// order. It is empty when no slot is enabled.
//
// Usage is the last raw reading, not a history value. A slot that has never
// had a reading shows as unavailable.
func FormatTooltip(slots []Slot) string {
	var lines []string
	for _, s := range slots {
		if !s.Enabled {
			continue
		}
		lines = append(lines, formatSlot(s))
	}
	return strings.Join(lines, "\n")
}

func formatSlot(s Slot) string {
	if !IsAvailable(s.Usage) {
		return fmt.Sprintf("GPU %d: n/a", s.Index)
	}
	return fmt.Sprintf("GPU %d: %.1f%%", s.Index, s.Usage*100)
}
