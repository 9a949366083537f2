package format

import (
	"fmt"
	"math"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// ByteSize renders a byte count as a human-readable base-1024 string with two
// decimal places, e.g. "10 B", "1.46 KB", "2.5 MB". Whole byte counts below
// 1 KB carry no decimals.
func ByteSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	exp := int(math.Log(float64(n)) / math.Log(1024))
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}
	value := float64(n) / math.Pow(1024, float64(exp))
	// Round to two decimals, then trim a trailing ".00".
	rounded := math.Round(value*100) / 100
	s := fmt.Sprintf("%.2f", rounded)
	if s[len(s)-3:] == ".00" {
		s = s[:len(s)-3]
	}
	return fmt.Sprintf("%s %s", s, sizeUnits[exp])
}
