package id

import (
	"fmt"
	"strconv"
	"strings"
)

// Allocator hands out sequential account IDs above the highest existing one.
type Allocator struct {
	next int
}

// NewAllocator starts allocation at max(existing, 0) + 1.
func NewAllocator(existing []int) *Allocator {
	maxID := 0
	for _, v := range existing {
		if v > maxID {
			maxID = v
		}
	}
	return &Allocator{next: maxID + 1}
}

// Next returns the next free ID.
func (a *Allocator) Next() int {
	v := a.next
	a.next++
	return v
}

// Peek returns the ID the next call to Next will return.
func (a *Allocator) Peek() int {
	return a.next
}

// ParseAccountID parses a positive account ID such as "42" or "#42".
func ParseAccountID(s string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "#")
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid account ID %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid account ID %q: must be positive", s)
	}
	return v, nil
}

// FormatAccountID renders an ID the way the CLI prints it.
func FormatAccountID(v int) string {
	return "#" + strconv.Itoa(v)
}
