package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const bannerHTML = `<!DOCTYPE html>
<html>
<head><title>Food Ordering API</title></head>
<body>
<h1>Food Ordering Backend is Running!</h1>
<p>Welcome to the API server. Check <a href="/health">/health</a> for status.</p>
</body>
</html>`

type HealthHandler struct {
	startedAt time.Time
	now       func() time.Time
}

func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, now: time.Now}
}

type HealthResponse struct {
	Message         string    `json:"message"`
	Uptime          int64     `json:"uptime"` // 秒
	Timestamp       time.Time `json:"timestamp"`
	ServerStartTime time.Time `json:"server_start_time"`
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.banner)
	e.GET("/health", h.health)
}

func (h *HealthHandler) banner(c echo.Context) error {
	return c.HTML(http.StatusOK, bannerHTML)
}

func (h *HealthHandler) health(c echo.Context) error {
	now := h.now()
	return c.JSON(http.StatusOK, HealthResponse{
		Message:         "health OK!",
		Uptime:          int64(now.Sub(h.startedAt) / time.Second),
		Timestamp:       now,
		ServerStartTime: h.startedAt,
	})
}
