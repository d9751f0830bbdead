package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1024", 1024},
		{"1KB", 1000},
		{"1KiB", 1024},
		{"8MB", 8_000_000},
		{"8MiB", 8 * 1024 * 1024},
		{"1.5GiB", 1536 * 1024 * 1024},
		{"2GB", 2_000_000_000},
		{"512B", 512},
		{" 4 MiB ", 4 * 1024 * 1024},
		{"4mib", 4 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "MiB", "-1", "1.2.3MB"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			require.Error(t, err)
		})
	}
}
