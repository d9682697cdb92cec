package analytics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatNumber renders n with thousands separators, e.g. "12,345".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal renders f with thousands separators and at most three
// fraction digits, e.g. "1,234.5".
func FormatDecimal(f float64) string {
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// FormatCurrency renders amount as US dollars, e.g. "$1,234.50" or "-$3.00".
func FormatCurrency(amount float64) string {
	amount = math.Round(amount*100) / 100
	if amount < 0 {
		return "-$" + printer.Sprintf("%.2f", -amount)
	}
	return "$" + printer.Sprintf("%.2f", amount)
}

// Trend classifies a growth figure for styling.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
)

// GrowthTrend reports positive for zero or greater growth.
func GrowthTrend(growth float64) Trend {
	if growth >= 0 {
		return TrendPositive
	}
	return TrendNegative
}

// FormatGrowth renders a month-over-month percentage, e.g.
// "+12.5% from last month" or "-3% from last month".
func FormatGrowth(growth float64) string {
	var b strings.Builder
	if growth >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.FormatFloat(growth, 'f', -1, 64))
	b.WriteString("% from last month")
	return b.String()
}

// dayLayouts are the date encodings the backend is known to send.
var dayLayouts = []string{
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
}

// FormatDay renders a sales-trend date as month/day/year. Unparseable
// input is returned unchanged.
func FormatDay(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return raw
}
