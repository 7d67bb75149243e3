package ftime

import (
	"fmt"
	"sync"
)

// TimeFormat selects the display rendering for departure times.
type TimeFormat string

const (
	Format12 TimeFormat = "12h"
	Format24 TimeFormat = "24h"
)

// Formatter renders logical minute values as display strings. Strings are
// cached per format; the domain of inputs is bounded (0-1589) so the caches
// cannot grow without limit. The 12h form carries no AM/PM suffix; the UI
// implies it from context.
type Formatter struct {
	mu      sync.Mutex
	format  TimeFormat
	cache12 map[int]string
	cache24 map[int]string
}

// NewFormatter creates a Formatter with the given default format.
func NewFormatter(format TimeFormat) *Formatter {
	return &Formatter{
		format:  format,
		cache12: make(map[int]string),
		cache24: make(map[int]string),
	}
}

// SetFormat switches the format used by Display.
func (f *Formatter) SetFormat(format TimeFormat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.format = format
}

// Display renders t in the configured format.
func (f *Formatter) Display(t int) string {
	f.mu.Lock()
	format := f.format
	f.mu.Unlock()
	if format == Format24 {
		return f.Display24(t)
	}
	return f.Display12(t)
}

// Display12 renders t as h:mm on a 12-hour dial.
func (f *Formatter) Display12(t int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.cache12[t]; ok {
		return s
	}
	hours := t / 60
	minutes := t % 60
	if hours > 24 {
		hours -= 24
	}
	if hours > 12 {
		hours -= 12
	}
	if hours == 0 {
		hours = 12
	}
	s := fmt.Sprintf("%d:%02d", hours, minutes)
	f.cache12[t] = s
	return s
}

// Display24 renders t as zero-padded HH:MM.
func (f *Formatter) Display24(t int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.cache24[t]; ok {
		return s
	}
	hours := t / 60
	minutes := t % 60
	if hours >= 24 {
		hours -= 24
	}
	s := fmt.Sprintf("%02d:%02d", hours, minutes)
	f.cache24[t] = s
	return s
}
