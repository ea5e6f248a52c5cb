package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/service/dashboard"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

type DashboardHandler struct {
	svc dashboard.Service
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /dashboard/doctor
func (h *DashboardHandler) Doctor(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	sum, err := h.svc.ForDoctor(c.Context(), claims.UserID)
	if err != nil {
		return internalError(c)
	}

	return ok(c, sum)
}

// GET /dashboard/patient
func (h *DashboardHandler) Patient(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	sum, err := h.svc.ForPatient(c.Context(), claims.UserID)
	if err != nil {
		return internalError(c)
	}

	return ok(c, sum)
}
