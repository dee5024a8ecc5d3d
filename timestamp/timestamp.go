// Package timestamp converts between human-readable clock strings and second offsets.
//
// The backend reports segment boundaries as "H:MM:SS", "MM:SS" or bare
// seconds. Parsing is deliberately lenient: missing or non-numeric parts
// resolve to 0 rather than producing an error, matching the backend's own
// formatting guarantees.
package timestamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts a clock string into a second offset.
// Accepts "H:MM:SS", "MM:SS" or bare seconds; malformed parts count as 0.
func Parse(text string) int {
	parts := strings.Split(text, ":")
	numbers := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			n = 0
		}
		numbers[i] = n
	}

	switch len(numbers) {
	case 3:
		return numbers[0]*3600 + numbers[1]*60 + numbers[2]
	case 2:
		return numbers[0]*60 + numbers[1]
	default:
		return numbers[0]
	}
}

// Format renders a second offset as a clock string.
// Negative inputs clamp to zero, fractions floor, and the hour field is
// omitted when zero. Minutes and seconds are always two digits.
func Format(seconds float64) string {
	total := int(math.Floor(math.Max(0, seconds)))
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	if hrs > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
