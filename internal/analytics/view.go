package analytics

import (
	"strings"

	"github.com/zulandar/storeadmin/internal/models"
)

// Display windows applied by the renderers.
const (
	TopProductsShown = 5
	SalesDaysShown   = 7
	LowStockShown    = 5
)

// TopN returns the n best-ranked products.
func TopN(products []models.TopProduct, n int) []models.TopProduct {
	return head(products, n)
}

// LastDays returns the n most recent sales days.
func LastDays(trend []models.SalesDay, n int) []models.SalesDay {
	return tail(trend, n)
}

// LowStockPreview returns the n lowest-stock variants.
func LowStockPreview(items []models.LowStockItem, n int) []models.LowStockItem {
	return head(items, n)
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Level classifies a low-stock quantity for styling.
type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
)

// StockLevel returns critical for an empty variant, warning otherwise.
func StockLevel(quantity int64) Level {
	if quantity == 0 {
		return LevelCritical
	}
	return LevelWarning
}

// VariantLabel joins the non-empty color and size of item, e.g. "Red / M".
func VariantLabel(item models.LowStockItem) string {
	var parts []string
	if item.Color != "" {
		parts = append(parts, item.Color)
	}
	if item.Size != "" {
		parts = append(parts, item.Size)
	}
	return strings.Join(parts, " / ")
}

// View is the windowed, display-ready projection of a snapshot.
type View struct {
	Overview    models.Fragment[models.Overview]
	SalesTrend  []models.SalesDay
	OrderStatus []models.OrderStatusBucket
	TopProducts []models.TopProduct
	Categories  []models.CategoryAggregate
	Inventory   models.Fragment[models.Inventory]
	LowStock    []models.LowStockItem
}

// NewView applies the display windows to snap.
func NewView(snap models.AnalyticsSnapshot) View {
	v := View{
		Overview:    snap.Overview,
		SalesTrend:  LastDays(snap.SalesTrend.Value, SalesDaysShown),
		OrderStatus: snap.OrderStatus.Value,
		TopProducts: TopN(snap.TopProducts.Value, TopProductsShown),
		Categories:  snap.Categories.Value,
		Inventory:   snap.Inventory,
	}
	if inv, ok := snap.Inventory.Get(); ok {
		v.LowStock = LowStockPreview(inv.LowStockItems, LowStockShown)
	}
	return v
}
