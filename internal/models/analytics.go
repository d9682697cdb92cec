package models

import "time"

// Overview holds the headline store metrics.
type Overview struct {
	TotalRevenue  float64 `json:"total_revenue"`
	RevenueGrowth float64 `json:"revenue_growth"`
	TotalOrders   int64   `json:"total_orders"`
	OrderGrowth   float64 `json:"order_growth"`
	TotalUsers    int64   `json:"total_users"`
	UserGrowth    float64 `json:"user_growth"`
	TotalProducts int64   `json:"total_products"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// SalesDay is one day of the sales trend. Date is kept as sent by the
// backend; see analytics.FormatDay for display.
type SalesDay struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// OrderStatusBucket counts orders in a single status.
type OrderStatusBucket struct {
	Status  string  `json:"status"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// TopProduct is a best-selling product. Slice order is rank order.
type TopProduct struct {
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	TotalSold float64 `json:"total_sold"`
	Revenue   float64 `json:"revenue"`
}

// CategoryAggregate summarizes sales for one product category.
type CategoryAggregate struct {
	Category     string  `json:"category"`
	ProductCount int64   `json:"product_count"`
	TotalSold    float64 `json:"total_sold"`
	Revenue      float64 `json:"revenue"`
}

// InventorySummary holds stock totals across all variants.
type InventorySummary struct {
	TotalVariants int64   `json:"total_variants"`
	TotalStock    float64 `json:"total_stock"`
	AvgStock      float64 `json:"avg_stock"`
	LowStock      int64   `json:"low_stock"`
	OutOfStock    int64   `json:"out_of_stock"`
}

// LowStockItem is a product variant running low, ordered by quantity ascending.
type LowStockItem struct {
	ProductName string `json:"product_name"`
	Color       string `json:"color,omitempty"`
	Size        string `json:"size,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int64  `json:"quantity"`
}

// Inventory is the inventory fragment: a summary plus low-stock alerts.
type Inventory struct {
	Summary       InventorySummary `json:"summary"`
	LowStockItems []LowStockItem   `json:"low_stock_items"`
}

// Fragment is one independently fetched piece of an AnalyticsSnapshot.
// An absent fragment means "no data", not a zero value.
type Fragment[T any] struct {
	Present   bool      `json:"present"`
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get returns the value and whether it is present.
func (f Fragment[T]) Get() (T, bool) {
	return f.Value, f.Present
}

// AnalyticsSnapshot is the render-ready merge of the six analytics resources.
type AnalyticsSnapshot struct {
	Overview    Fragment[Overview]            `json:"overview"`
	SalesTrend  Fragment[[]SalesDay]          `json:"sales_trend"`
	OrderStatus Fragment[[]OrderStatusBucket] `json:"order_status"`
	TopProducts Fragment[[]TopProduct]        `json:"top_products"`
	Categories  Fragment[[]CategoryAggregate] `json:"categories"`
	Inventory   Fragment[Inventory]           `json:"inventory"`
}
