package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteSize(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 10, "10 B"},
		{"just under a kilobyte", 1023, "1023 B"},
		{"exact kilobyte", 1024, "1 KB"},
		{"fractional kilobytes", 1500, "1.46 KB"},
		{"megabytes", 5 * 1024 * 1024, "5 MB"},
		{"fractional megabytes", 2621440 + 131072, "2.63 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3 GB"},
		{"beyond gigabytes stays in GB", 2048 * 1024 * 1024 * 1024, "2048 GB"},
		{"negative treated as empty", -5, "0 B"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ByteSize(tc.in))
		})
	}
}
