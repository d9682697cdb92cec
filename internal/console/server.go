// Package console serves the browser front end: the analytics dashboard
// and the assistant chat, plus a JSON API and an SSE stream of state changes.
package console

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/models"
)

// Conversation is the chat controller surface the console drives.
type Conversation interface {
	Submit(ctx context.Context, text string) <-chan models.Message
	SetPendingInput(text string)
	ClearInput()
	ApplyQuickAction(action models.QuickAction)
	State() models.ConversationState
	ShowWelcome() bool
	Subscribe() (<-chan struct{}, func())
}

// Dashboard is the analytics aggregator surface the console drives.
type Dashboard interface {
	Refresh(ctx context.Context) error
	State() analytics.State
	Subscribe() (<-chan struct{}, func())
}

// StartOpts holds configuration for the console server.
type StartOpts struct {
	Chat      Conversation
	Analytics Dashboard
	Port      int
	Out       io.Writer
	Logger    *slog.Logger
}

// Start launches the console HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8090
	}
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Console running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// NewRouter builds the console's gin engine without starting a listener.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Chat == nil {
		return nil, fmt.Errorf("console: chat is required")
	}
	if opts.Analytics == nil {
		return nil, fmt.Errorf("console: analytics is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	h := &handlers{chat: opts.Chat, analytics: opts.Analytics, logger: opts.Logger}
	registerRoutes(router, h)
	return router, nil
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("console: request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// templateFuncs exposes the analytics formatters to the page templates.
var templateFuncs = template.FuncMap{
	"currency": analytics.FormatCurrency,
	"number":   analytics.FormatNumber,
	"decimal":  analytics.FormatDecimal,
	"growth":   analytics.FormatGrowth,
	"trend":    analytics.GrowthTrend,
	"day":      analytics.FormatDay,
	"level":    analytics.StockLevel,
	"variant":  analytics.VariantLabel,
	"rank":     func(i int) int { return i + 1 },
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
