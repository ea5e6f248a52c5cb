package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/api/http/handler"
)

func (r *Router) registerUserRoutes(api fiber.Router, h *handler.UserHandler, authRequired fiber.Handler) {
	users := api.Group("/users", authRequired)
	users.Get("/me", h.Me)

	api.Get("/doctors", authRequired, h.ListDoctors)
}
