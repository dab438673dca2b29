package core

import (
	"errors"
	"testing"
)

func TestParseCount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"", 0, nil},
		{"0", 0, nil},
		{" 50 ", 50, nil},
		{"+7", 7, nil},
		{"1.5", 0, ErrInvalidCount},
		{"-3", 0, ErrNegativeAmount},
		{"abc", 0, ErrInvalidCount},
		{"12x", 0, ErrInvalidCount},
	}
	for _, c := range cases {
		got, err := ParseCount(c.in)
		if !errors.Is(err, c.err) {
			t.Fatalf("ParseCount(%q) err = %v, want %v", c.in, err, c.err)
		}
		if got != c.out {
			t.Fatalf("ParseCount(%q) = %d, want %d", c.in, got, c.out)
		}
	}
}
