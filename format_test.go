package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), "bytes %d", tt.bytes)
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	sameYear := time.Date(now.Year(), 3, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5 14:30", formatTime(sameYear))

	pastYear := time.Date(now.Year()-1, 3, 5, 14, 30, 0, 0, time.Local)
	assert.Contains(t, formatTime(pastYear), "Mar  5")
	assert.NotContains(t, formatTime(pastYear), "14:30")
}

func TestPrintTable(t *testing.T) {
	var sb strings.Builder

	printTable(&sb, []string{"ID", "NAME"}, [][]string{
		{"1", "short"},
		{"42", "a-much-longer-name"},
	})

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 3)

	// Columns align on the widest cell.
	assert.True(t, strings.HasPrefix(lines[0], "ID  NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "1   short"))
	assert.True(t, strings.HasPrefix(lines[2], "42  a-much-longer-name"))
}
