package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1234.56", 123456, true},
		{"$1,234.56", 123456, true},
		{"$375,000", 37500000, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"", 0, true}, // missing optional cell defaults to zero
		{"0", 0, true},
		{"-1", 0, false},
		{"($5)", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0"},
		{100, "$1"},
		{123456, "$1,235"},
		{37500000, "$375,000"},
		{100000000, "$1,000,000"},
		{-250000, "-$2,500"},
		{49, "$0"},  // rounds down
		{50, "$1"},  // half up
	}
	for _, tc := range cases {
		if got := FormatUSD(tc.cents); got != tc.want {
			t.Fatalf("FormatUSD(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFormatUSDExact(t *testing.T) {
	if got := FormatUSDExact(123456); got != "$1,234.56" {
		t.Fatalf("got %q", got)
	}
	if got := FormatUSDExact(-50); got != "-$0.50" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(20000); got != "20,000" {
		t.Fatalf("got %q", got)
	}
	if got := FormatCount(224); got != "224" {
		t.Fatalf("got %q", got)
	}
}
