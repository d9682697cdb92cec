// Package digest turns an analytics snapshot into a short report and
// delivers it to chat platforms (Slack, Discord).
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/models"
)

// Color constants for digest severity.
const (
	ColorSuccess = "#36a64f"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// Digest is a platform-neutral message ready for delivery.
type Digest struct {
	Title  string
	Body   string  // markdown
	Color  string  // sidebar color hint
	Fields []Field // key-value metadata pairs
}

// Field is a key-value pair displayed alongside the digest.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Notifier delivers a digest to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, d Digest) error
}

// Build formats st as a digest. Absent fragments are reported as
// unavailable rather than as zeros.
func Build(st analytics.State, now time.Time) Digest {
	snap := st.Snapshot
	var lines []string
	var fields []Field
	color := ColorSuccess

	lines = append(lines, fmt.Sprintf("**As of**: %s", now.Format("Jan 2 15:04")))
	if st.Err != nil {
		lines = append(lines, fmt.Sprintf("**Warning**: %s; figures may be stale", analytics.ErrFetchFailed))
		color = ColorError
	}

	if ov, ok := snap.Overview.Get(); ok {
		lines = append(lines,
			fmt.Sprintf("**Revenue**: %s (%s)", analytics.FormatCurrency(ov.TotalRevenue), analytics.FormatGrowth(ov.RevenueGrowth)),
			fmt.Sprintf("**Orders**: %s (%s)", analytics.FormatNumber(ov.TotalOrders), analytics.FormatGrowth(ov.OrderGrowth)),
			fmt.Sprintf("**Users**: %s (%s)", analytics.FormatNumber(ov.TotalUsers), analytics.FormatGrowth(ov.UserGrowth)),
		)
		fields = append(fields,
			Field{Name: "Revenue", Value: analytics.FormatCurrency(ov.TotalRevenue), Short: true},
			Field{Name: "Orders", Value: analytics.FormatNumber(ov.TotalOrders), Short: true},
			Field{Name: "Avg Order", Value: analytics.FormatCurrency(ov.AvgOrderValue), Short: true},
			Field{Name: "Products", Value: analytics.FormatNumber(ov.TotalProducts), Short: true},
		)
		if ov.RevenueGrowth < 0 && color == ColorSuccess {
			color = ColorWarning
		}
	} else {
		lines = append(lines, "**Overview**: unavailable")
	}

	if products, ok := snap.TopProducts.Get(); ok && len(products) > 0 {
		lines = append(lines, "", "**Top Products**:")
		for i, p := range analytics.TopN(products, 3) {
			lines = append(lines, fmt.Sprintf("  #%d %s: %s sold, %s",
				i+1, p.Name, analytics.FormatDecimal(p.TotalSold), analytics.FormatCurrency(p.Revenue)))
		}
	}

	if inv, ok := snap.Inventory.Get(); ok {
		fields = append(fields,
			Field{Name: "Low Stock", Value: analytics.FormatNumber(inv.Summary.LowStock), Short: true},
			Field{Name: "Out of Stock", Value: analytics.FormatNumber(inv.Summary.OutOfStock), Short: true},
		)
		if critical := criticalItems(inv.LowStockItems); len(critical) > 0 {
			lines = append(lines, "", "**Out of stock**: "+strings.Join(critical, ", "))
			if color == ColorSuccess {
				color = ColorWarning
			}
		}
	}

	return Digest{
		Title:  "Store Analytics Digest",
		Body:   strings.Join(lines, "\n"),
		Color:  color,
		Fields: fields,
	}
}

// criticalItems names the previewed low-stock variants that are empty.
func criticalItems(items []models.LowStockItem) []string {
	var out []string
	for _, item := range analytics.LowStockPreview(items, analytics.LowStockShown) {
		if analytics.StockLevel(item.Quantity) != analytics.LevelCritical {
			continue
		}
		name := item.ProductName
		if label := analytics.VariantLabel(item); label != "" {
			name += " (" + label + ")"
		}
		out = append(out, name)
	}
	return out
}

// Publish sends d to every notifier. Delivery continues past individual
// failures; the returned error joins all of them.
func Publish(ctx context.Context, notifiers []Notifier, d Digest, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, n := range notifiers {
		if err := n.Send(ctx, d); err != nil {
			logger.Error("digest: delivery failed", "notifier", n.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		logger.Info("digest: delivered", "notifier", n.Name())
	}
	return errors.Join(errs...)
}
