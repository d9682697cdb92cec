package main

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/models"
)

func TestRenderAnalytics_Empty(t *testing.T) {
	out := renderAnalytics(analytics.State{})
	if strings.Count(out, "No data") != 5 {
		t.Errorf("want five empty sections, got:\n%s", out)
	}
	if strings.Contains(out, "Updated") {
		t.Error("empty state shows an update time")
	}
}

func TestRenderAnalytics_LoadingAndError(t *testing.T) {
	out := renderAnalytics(analytics.State{Loading: true, Error: "Failed to fetch analytics data"})
	if !strings.Contains(out, "refreshing...") || !strings.Contains(out, "Failed to fetch analytics data") {
		t.Errorf("output = %s", out)
	}
}

func TestRenderAnalytics_Windows(t *testing.T) {
	var products []models.TopProduct
	for _, name := range []string{"a1", "a2", "a3", "a4", "a5", "a6"} {
		products = append(products, models.TopProduct{Name: name})
	}
	st := analytics.State{
		Snapshot: models.AnalyticsSnapshot{
			TopProducts: models.Fragment[[]models.TopProduct]{Present: true, Value: products},
		},
		LastRefresh: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	out := renderAnalytics(st)
	if !strings.Contains(out, "#5 a5") || strings.Contains(out, "a6") {
		t.Errorf("top products window wrong:\n%s", out)
	}
	if !strings.Contains(out, "Updated Oct 19 09:00:00") {
		t.Errorf("missing update time:\n%s", out)
	}
}

func TestRenderHistory_Timestamps(t *testing.T) {
	history := []models.Message{
		{ID: 1, Text: "one", Sender: models.SenderUser, Timestamp: "09:00 AM"},
		{ID: 2, Text: "two", Sender: models.SenderUser, Timestamp: "09:01 AM"},
		{ID: 3, Text: "three", Sender: models.SenderBot, Timestamp: "09:02 AM", SQL: "SELECT 1"},
	}
	out := renderHistory(history)
	if !strings.Contains(out, "09:00 AM") || strings.Contains(out, "09:01 AM") || !strings.Contains(out, "09:02 AM") {
		t.Errorf("timestamps not collapsed:\n%s", out)
	}
	if !strings.Contains(out, "SELECT 1") {
		t.Error("bot SQL not rendered")
	}
}

func TestRenderMessage_UserSQLHidden(t *testing.T) {
	out := renderMessage(models.Message{Text: "hi", Sender: models.SenderUser, SQL: "DROP"}, true)
	if strings.Contains(out, "DROP") {
		t.Error("user message rendered SQL")
	}
}

func TestRenderQuickActions(t *testing.T) {
	out := renderQuickActions()
	for _, want := range []string{"[1]", "Get suggestions", "[4]", "Settings"} {
		if !strings.Contains(out, want) {
			t.Errorf("quick actions missing %q: %s", want, out)
		}
	}
}
