package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProportionalAmount(t *testing.T) {
	cases := []struct {
		total string
		pct   string
		want  string
	}{
		{"100", "25", "25"},
		{"100", "50", "50"},
		{"60", "25", "15"},
		{"10", "33.33", "3.33"},
		{"0.01", "50", "0.01"}, // 0.005 rounds half-up
		{"0.01", "25", "0"},    // 0.0025 rounds down
		{"99.99", "33.33", "33.33"},
		{"0", "100", "0"},
		{"100", "0", "0"},
	}
	for _, tc := range cases {
		got := ProportionalAmount(dec(tc.total), dec(tc.pct))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("ProportionalAmount(%s, %s) = %s, want %s", tc.total, tc.pct, got, tc.want)
		}
	}
}

func TestImpliedPercentage(t *testing.T) {
	cases := []struct {
		amount string
		total  string
		want   string
	}{
		{"30", "90", "33.33"},
		{"25", "100", "25"},
		{"50", "100", "50"},
		{"1", "3", "33.33"},
		{"2", "3", "66.67"},
		{"10", "0", "0"}, // division guard, not a real percentage
		{"0", "100", "0"},
	}
	for _, tc := range cases {
		got := ImpliedPercentage(dec(tc.amount), dec(tc.total))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("ImpliedPercentage(%s, %s) = %s, want %s", tc.amount, tc.total, got, tc.want)
		}
	}
}

func TestRoundingTolerance(t *testing.T) {
	cases := []struct {
		shares int
		want   string
	}{
		{0, "0"},
		{1, "0"},
		{2, "0.01"},
		{5, "0.04"},
	}
	for _, tc := range cases {
		if got := RoundingTolerance(tc.shares); !got.Equal(dec(tc.want)) {
			t.Errorf("RoundingTolerance(%d) = %s, want %s", tc.shares, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(dec(tc.out)) {
				t.Errorf("ParseAmount(%q) = %s, %v; want %s", tc.in, got, err, tc.out)
			}
		} else if err == nil {
			t.Errorf("ParseAmount(%q) expected error", tc.in)
		}
	}
}
