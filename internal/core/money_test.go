package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"50000", 50000},
		{" 120000 ", 120000},
		{"50,000", 50000},
		{"50,000원", 50000},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-100", 0},
		{"12.5", 0},
		{"99999999999999999999", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got)
		}
	}
}

func TestFormatWon(t *testing.T) {
	cases := map[int64]string{
		0:       "0원",
		40000:   "40,000원",
		1234567: "1,234,567원",
		-20000:  "-20,000원",
	}
	for in, want := range cases {
		if got := FormatWon(in); got != want {
			t.Fatalf("%d expected %q, got %q", in, want, got)
		}
	}
}
