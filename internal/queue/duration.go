package queue

import (
	"fmt"
	"strconv"
	"strings"
)

// parseDuration reads "HH:MM:SS" or "MM:SS" into seconds. Anything else
// (including the empty string) reports ok=false and is excluded from
// aggregation rather than treated as zero-length.
func parseDuration(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func formatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
