package server

import (
	"foodorder/internal/config"
	"foodorder/internal/repository"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	h.Health.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.User.RegisterRoutes(e, cfg, userRepo)
	h.MyRestaurant.RegisterRoutes(e, cfg, userRepo)
	h.Restaurant.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Analytics.RegisterRoutes(e, cfg, userRepo)
	h.AdminAudit.RegisterRoutes(e, cfg, userRepo)
}
