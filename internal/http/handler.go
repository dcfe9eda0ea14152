package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"store-traffic-service/internal/live"
	"store-traffic-service/internal/model"
	"store-traffic-service/internal/service"
)

// StorageState reports whether events are currently being persisted.
type StorageState interface {
	State() model.ConnState
}

// OccupancyView exposes the generator's latest occupancy counts.
type OccupancyView interface {
	Occupancy() map[int]int
}

type Handler struct {
	trafficService *service.TrafficService
	storage        StorageState
	occupancy      OccupancyView
	hub            *live.Hub
	upgrader       websocket.Upgrader
	env            string
	startedAt      time.Time
	log            zerolog.Logger
}

func NewHandler(
	trafficService *service.TrafficService,
	storage StorageState,
	occupancy OccupancyView,
	hub *live.Hub,
	allowedOrigins []string,
	env string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		trafficService: trafficService,
		storage:        storage,
		occupancy:      occupancy,
		hub:            hub,
		upgrader:       live.Upgrader(allowedOrigins),
		env:            env,
		startedAt:      time.Now(),
		log:            log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/ws", h.liveFeed)

	api := r.Group("/api")
	{
		api.GET("/status", h.status)

		traffic := api.Group("/traffic")
		traffic.GET("/hourly", h.getHourlyTraffic)
		traffic.GET("/recent", h.getRecentTraffic)
	}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Store Traffic API is running",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"env":     h.env,
	})
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"database": h.storage.State().DatabaseLabel(),
		"server": gin.H{
			"uptime":    time.Since(h.startedAt).Seconds(),
			"timestamp": time.Now().UnixMilli(),
		},
		"live_clients": h.hub.ClientCount(),
		"occupancy":    occupancyJSON(h.occupancy.Occupancy()),
	})
}

func (h *Handler) getHourlyTraffic(c *gin.Context) {
	buckets, err := h.trafficService.Hourly(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	if buckets == nil {
		buckets = []model.HourlyBucket{}
	}

	c.JSON(http.StatusOK, listResponse(buckets, len(buckets)))
}

func (h *Handler) getRecentTraffic(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.handleError(c, fmt.Errorf("%w: limit must be a number", service.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	events, err := h.trafficService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if events == nil {
		events = []model.TrafficEvent{}
	}

	c.JSON(http.StatusOK, listResponse(events, len(events)))
}

func (h *Handler) liveFeed(c *gin.Context) {
	h.hub.Serve(h.upgrader, c.Writer, c.Request)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("Server Error"))
	}
}

func listResponse(data interface{}, count int) gin.H {
	return gin.H{
		"success": true,
		"count":   count,
		"data":    data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"count":   0,
		"data":    []struct{}{},
		"error":   message,
	}
}

func occupancyJSON(counts map[int]int) map[string]int {
	out := make(map[string]int, len(counts))
	for id, count := range counts {
		out[strconv.Itoa(id)] = count
	}
	return out
}
