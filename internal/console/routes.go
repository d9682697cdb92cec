package console

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/chat"
	"github.com/zulandar/storeadmin/internal/models"
)

type handlers struct {
	chat      Conversation
	analytics Dashboard
	logger    *slog.Logger
}

// registerRoutes sets up all console routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Pages.
	router.GET("/", h.dashboardPage)
	router.GET("/chat", h.chatPage)

	// API.
	api := router.Group("/api")
	api.GET("/analytics", h.getAnalytics)
	api.POST("/analytics/refresh", h.refreshAnalytics)
	api.GET("/chat", h.getChat)
	api.POST("/chat/messages", h.postMessage)
	api.PUT("/chat/input", h.putInput)
	api.DELETE("/chat/input", h.clearInput)
	api.POST("/chat/quick-actions/:index", h.applyQuickAction)
	api.GET("/events", h.events)
}

// analyticsView is the analytics state plus its display windows.
type analyticsView struct {
	analytics.State
	View analytics.View `json:"-"`
}

func (h *handlers) analyticsView() analyticsView {
	st := h.analytics.State()
	return analyticsView{State: st, View: analytics.NewView(st.Snapshot)}
}

// chatView is the conversation state plus display hints.
type chatView struct {
	models.ConversationState
	ShowTimestamp []bool               `json:"show_timestamp"`
	ShowWelcome   bool                 `json:"show_welcome"`
	QuickActions  []models.QuickAction `json:"quick_actions,omitempty"`
}

func (h *handlers) chatView() chatView {
	st := h.chat.State()
	v := chatView{
		ConversationState: st,
		ShowTimestamp:     chat.VisibleTimestamps(st.History),
		ShowWelcome:       h.chat.ShowWelcome(),
	}
	if v.ShowWelcome {
		v.QuickActions = chat.QuickActions
	}
	return v
}

func (h *handlers) dashboardPage(c *gin.Context) {
	c.HTML(http.StatusOK, "layout.html", gin.H{
		"page":      "dashboard",
		"analytics": h.analyticsView(),
	})
}

func (h *handlers) chatPage(c *gin.Context) {
	c.HTML(http.StatusOK, "layout.html", gin.H{
		"page": "chat",
		"chat": h.chatView(),
	})
}

func (h *handlers) getAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyticsView())
}

// refreshAnalytics runs a refresh detached from the request so a client
// disconnect does not abort a batch other callers may have joined.
func (h *handlers) refreshAnalytics(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if c.Query("wait") != "true" {
		go func() {
			if err := h.analytics.Refresh(ctx); err != nil {
				h.logger.Warn("console: refresh failed", "error", err)
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
		return
	}
	if err := h.analytics.Refresh(ctx); err != nil && !errors.Is(err, analytics.ErrFetchFailed) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.analyticsView())
}

func (h *handlers) getChat(c *gin.Context) {
	c.JSON(http.StatusOK, h.chatView())
}

type messageRequest struct {
	Message string `json:"message"`
}

// postMessage submits a message. With ?wait=true the response carries the
// bot reply; otherwise it returns as soon as the user message is recorded.
func (h *handlers) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	done := h.chat.Submit(context.WithoutCancel(c.Request.Context()), req.Message)
	if done == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "a reply is still pending"})
		return
	}
	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, h.chatView())
		return
	}

	select {
	case reply := <-done:
		c.JSON(http.StatusOK, reply)
	case <-c.Request.Context().Done():
	}
}

type inputRequest struct {
	Text string `json:"text"`
}

func (h *handlers) putInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.chat.SetPendingInput(req.Text)
	c.JSON(http.StatusOK, h.chatView())
}

func (h *handlers) clearInput(c *gin.Context) {
	h.chat.ClearInput()
	c.JSON(http.StatusOK, h.chatView())
}

func (h *handlers) applyQuickAction(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
		return
	}
	action, err := chat.QuickActionAt(i)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.chat.ApplyQuickAction(action)
	c.JSON(http.StatusOK, h.chatView())
}
