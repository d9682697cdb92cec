package analytics

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{42, "42"},
		{1234.5, "1,234.5"},
	}
	for _, tt := range tests {
		if got := FormatDecimal(tt.in); got != tt.want {
			t.Errorf("FormatDecimal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{125430.499, "$125,430.50"},
		{-3, "-$3.00"},
		{81.87, "$81.87"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatGrowth(t *testing.T) {
	tests := []struct {
		in    float64
		want  string
		trend Trend
	}{
		{12.5, "+12.5% from last month", TrendPositive},
		{0, "+0% from last month", TrendPositive},
		{-3.1, "-3.1% from last month", TrendNegative},
		{100, "+100% from last month", TrendPositive},
	}
	for _, tt := range tests {
		if got := FormatGrowth(tt.in); got != tt.want {
			t.Errorf("FormatGrowth(%v) = %q, want %q", tt.in, got, tt.want)
		}
		if got := GrowthTrend(tt.in); got != tt.trend {
			t.Errorf("GrowthTrend(%v) = %q, want %q", tt.in, got, tt.trend)
		}
	}
}

func TestFormatDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-10-01", "10/1/2026"},
		{"Thu, 01 Oct 2026 00:00:00 GMT", "10/1/2026"},
		{"2026-01-15T00:00:00Z", "1/15/2026"},
		{"yesterday", "yesterday"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatDay(tt.in); got != tt.want {
			t.Errorf("FormatDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
