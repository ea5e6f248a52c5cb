package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/api/http/handler"
	"github.com/caretap/caretap_backend/internal/api/http/middleware"
	"github.com/caretap/caretap_backend/internal/store"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	wh *handler.WatchHandler,
	authRequired fiber.Handler,
) {
	doctorOnly := middleware.RequireRole(store.RoleDoctor)
	patientOnly := middleware.RequireRole(store.RolePatient)

	appts := api.Group("/appointments", authRequired)

	appts.Get("/", ah.List)
	appts.Post("/", patientOnly, ah.Book)
	appts.Get("/watch", wh.Watch)

	a := appts.Group("/:id")
	a.Get("/", ah.GetByID)
	a.Patch("/accept", doctorOnly, ah.Accept)
	a.Patch("/decline", doctorOnly, ah.Decline)
	a.Patch("/start", doctorOnly, ah.Start)
	a.Patch("/complete", doctorOnly, ah.Complete)
	a.Get("/prescription", ah.Prescription)
	a.Post("/feedback", patientOnly, ah.Feedback)
}
