package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/api/http/handler"
	"github.com/caretap/caretap_backend/internal/api/http/middleware"
	"github.com/caretap/caretap_backend/internal/store"
)

func (r *Router) registerDashboardRoutes(api fiber.Router, h *handler.DashboardHandler, authRequired fiber.Handler) {
	group := api.Group("/dashboard", authRequired)
	group.Get("/doctor", middleware.RequireRole(store.RoleDoctor), h.Doctor)
	group.Get("/patient", middleware.RequireRole(store.RolePatient), h.Patient)
}
