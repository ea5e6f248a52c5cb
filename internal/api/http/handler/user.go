package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/service/user"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /me
func (h *UserHandler) Me(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	u, err := h.svc.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return internalError(c)
	}

	return ok(c, u)
}

// GET /doctors
func (h *UserHandler) ListDoctors(c fiber.Ctx) error {
	doctors, err := h.svc.ListDoctors(c.Context())
	if err != nil {
		return internalError(c)
	}

	return ok(c, doctors)
}
