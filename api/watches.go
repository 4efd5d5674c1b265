package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/service/watch"
)

// WatchHandler exposes a read-only admin view of the active watches.
type WatchHandler struct {
	registry *watch.Registry
}

func NewWatchHandler(registry *watch.Registry) *WatchHandler {
	return &WatchHandler{registry: registry}
}

func (h *WatchHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:chat_id", h.listByChat)
}

type watchView struct {
	ID         int64     `json:"id"`
	ChatID     int64     `json:"chat_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	CreatedAt  time.Time `json:"created_at"`
	Deadline   time.Time `json:"deadline"`
	LastPolled time.Time `json:"last_polled_at"`
}

func (h *WatchHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, toViews(h.registry.ListAll()))
}

func (h *WatchHandler) listByChat(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat_id"})
		return
	}
	c.JSON(http.StatusOK, toViews(h.registry.List(chatID)))
}

func toViews(watches []*domain.Watch) []watchView {
	views := make([]watchView, 0, len(watches))
	for _, w := range watches {
		views = append(views, watchView{
			ID:         w.ID,
			ChatID:     w.ChatID,
			From:       w.Query.From,
			To:         w.Query.To,
			RangeStart: w.Query.Range.Start,
			RangeEnd:   w.Query.Range.End,
			CreatedAt:  w.CreatedAt,
			Deadline:   w.Deadline,
			LastPolled: w.LastPolledAt,
		})
	}
	return views
}
