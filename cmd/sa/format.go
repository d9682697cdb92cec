package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/chat"
	"github.com/zulandar/storeadmin/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	sqlStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
)

// growthText renders a growth delta colored by its trend.
func growthText(g float64) string {
	if analytics.GrowthTrend(g) == analytics.TrendPositive {
		return positiveStyle.Render(analytics.FormatGrowth(g))
	}
	return negativeStyle.Render(analytics.FormatGrowth(g))
}

func statCard(title, value, detail string) string {
	return cardStyle.Render(mutedStyle.Render(title) + "\n" + headingStyle.Render(value) + "\n" + detail)
}

// renderAnalytics draws the dashboard for a terminal.
func renderAnalytics(st analytics.State) string {
	var b strings.Builder
	v := analytics.NewView(st.Snapshot)

	b.WriteString(titleStyle.Render("Analytics Dashboard"))
	if st.Loading {
		b.WriteString(mutedStyle.Render("  refreshing..."))
	}
	b.WriteString("\n")
	if st.Error != "" {
		b.WriteString(errorStyle.Render(st.Error) + "\n")
	}
	b.WriteString("\n")

	if ov, ok := v.Overview.Get(); ok {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			statCard("Total Revenue", analytics.FormatCurrency(ov.TotalRevenue), growthText(ov.RevenueGrowth)),
			statCard("Total Orders", analytics.FormatNumber(ov.TotalOrders), growthText(ov.OrderGrowth)),
			statCard("Total Users", analytics.FormatNumber(ov.TotalUsers), growthText(ov.UserGrowth)),
			statCard("Products", analytics.FormatNumber(ov.TotalProducts),
				mutedStyle.Render("Average Order: "+analytics.FormatCurrency(ov.AvgOrderValue))),
		))
		b.WriteString("\n\n")
	}

	section := func(title string) {
		b.WriteString(headingStyle.Render(title) + "\n")
	}
	empty := func() {
		b.WriteString(mutedStyle.Render("  No data") + "\n")
	}

	section("Top Products")
	for i, p := range v.TopProducts {
		fmt.Fprintf(&b, "  #%d %-24s %-12s %8s sold  %12s\n",
			i+1, p.Name, p.Brand, analytics.FormatDecimal(p.TotalSold), analytics.FormatCurrency(p.Revenue))
	}
	if len(v.TopProducts) == 0 {
		empty()
	}
	b.WriteString("\n")

	section("Order Status")
	for _, s := range v.OrderStatus {
		fmt.Fprintf(&b, "  %-14s %8s  %12s\n", s.Status, analytics.FormatNumber(s.Count), analytics.FormatCurrency(s.Revenue))
	}
	if len(v.OrderStatus) == 0 {
		empty()
	}
	b.WriteString("\n")

	section("Categories")
	for _, c := range v.Categories {
		fmt.Fprintf(&b, "  %-18s %5s products %8s sold  %12s\n",
			c.Category, analytics.FormatNumber(c.ProductCount), analytics.FormatDecimal(c.TotalSold), analytics.FormatCurrency(c.Revenue))
	}
	if len(v.Categories) == 0 {
		empty()
	}
	b.WriteString("\n")

	section("Inventory")
	if inv, ok := v.Inventory.Get(); ok {
		s := inv.Summary
		fmt.Fprintf(&b, "  %s variants, %s in stock, %s low, %s out\n",
			analytics.FormatNumber(s.TotalVariants), analytics.FormatDecimal(s.TotalStock),
			warningStyle.Render(analytics.FormatNumber(s.LowStock)),
			negativeStyle.Render(analytics.FormatNumber(s.OutOfStock)))
	} else {
		empty()
	}
	for _, item := range v.LowStock {
		qty := fmt.Sprintf("%d left", item.Quantity)
		if analytics.StockLevel(item.Quantity) == analytics.LevelCritical {
			qty = negativeStyle.Render(qty)
		} else {
			qty = warningStyle.Render(qty)
		}
		fmt.Fprintf(&b, "  %-24s %-12s %s\n", item.ProductName, analytics.VariantLabel(item), qty)
	}
	b.WriteString("\n")

	section("Sales Trend")
	for _, d := range v.SalesTrend {
		fmt.Fprintf(&b, "  %-10s %6s orders  %12s\n",
			analytics.FormatDay(d.Date), analytics.FormatNumber(d.Orders), analytics.FormatCurrency(d.Revenue))
	}
	if len(v.SalesTrend) == 0 {
		empty()
	}

	if !st.LastRefresh.IsZero() {
		b.WriteString("\n" + mutedStyle.Render("Updated "+st.LastRefresh.Format("Jan 2 15:04:05")) + "\n")
	}
	return b.String()
}

// renderMessage draws one chat message. showTimestamp follows
// chat.ShowTimestamp.
func renderMessage(m models.Message, showTimestamp bool) string {
	var b strings.Builder
	if m.IsBot() {
		b.WriteString(botStyle.Render("assistant"))
	} else {
		b.WriteString(userStyle.Render("you"))
	}
	if showTimestamp {
		b.WriteString(" " + mutedStyle.Render(m.Timestamp))
	}
	b.WriteString("\n" + m.Text + "\n")
	if m.HasSQL() {
		b.WriteString(sqlStyle.Render(m.SQL) + "\n")
	}
	return b.String()
}

// renderHistory draws a whole conversation.
func renderHistory(history []models.Message) string {
	var b strings.Builder
	show := chat.VisibleTimestamps(history)
	for i, m := range history {
		b.WriteString(renderMessage(m, show[i]))
		b.WriteString("\n")
	}
	return b.String()
}

// renderQuickActions lists the quick actions with their number keys.
func renderQuickActions() string {
	var parts []string
	for i, a := range chat.QuickActions {
		parts = append(parts, fmt.Sprintf("[%d] %s %s", i+1, a.Icon, a.Text))
	}
	return mutedStyle.Render(strings.Join(parts, "  "))
}
