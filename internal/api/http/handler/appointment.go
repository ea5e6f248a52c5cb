package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/service/appointment"
	"github.com/caretap/caretap_backend/internal/store"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	var ite *appointment.InvalidTransitionError

	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrUnknownDoctor),
		errors.Is(err, appointment.ErrPastDate),
		errors.Is(err, appointment.ErrInvalidSlot),
		errors.Is(err, appointment.ErrMissingMedicine),
		errors.Is(err, appointment.ErrInvalidRating):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrDailyLimitExceeded),
		errors.Is(err, appointment.ErrNotCompleted),
		errors.Is(err, appointment.ErrFeedbackExists):
		return conflict(c, err.Error())
	case errors.As(err, &ite):
		// Surface the attempted and current state for debuggability.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "invalid status transition",
			"current":   ite.Current,
			"attempted": ite.Attempted,
		})
	case errors.Is(err, appointment.ErrNotAllowed):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	var q struct {
		Status string `query:"status"`
		Date   string `query:"date"`
	}
	_ = c.Bind().Query(&q)

	req := appointment.ListRequest{}

	// Callers only ever see their own side of the ledger.
	uid := claims.UserID
	switch claims.Role {
	case string(store.RoleDoctor):
		req.DoctorID = &uid
	default:
		req.PatientID = &uid
	}

	if q.Status != "" {
		st := store.Status(q.Status)
		if !st.Valid() {
			return badRequest(c, "invalid status")
		}
		req.Status = &st
	}
	if q.Date != "" {
		req.Date = &q.Date
	}

	appts, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appts)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.GetByID(c.Context(), claims.UserID, apptID)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	var body struct {
		DoctorID string `json:"doctor_id"`
		Date     string `json:"date"`
		Time     string `json:"time"`
		Note     string `json:"note"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.DoctorID == "" || body.Date == "" || body.Time == "" {
		return badRequest(c, "doctor_id, date and time are required")
	}

	doctorID, err := uuid.Parse(body.DoctorID)
	if err != nil {
		return badRequest(c, "invalid doctor_id")
	}

	appt, err := h.svc.Book(c.Context(), appointment.BookRequest{
		PatientID: claims.UserID,
		DoctorID:  doctorID,
		Date:      body.Date,
		Time:      body.Time,
		Note:      body.Note,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}

// PATCH /appointments/:id/accept
func (h *AppointmentHandler) Accept(c fiber.Ctx) error {
	return h.doTransition(c, h.svc.Accept)
}

// PATCH /appointments/:id/decline
func (h *AppointmentHandler) Decline(c fiber.Ctx) error {
	return h.doTransition(c, h.svc.Decline)
}

// PATCH /appointments/:id/start
func (h *AppointmentHandler) Start(c fiber.Ctx) error {
	return h.doTransition(c, h.svc.Start)
}

func (h *AppointmentHandler) doTransition(
	c fiber.Ctx,
	op func(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error),
) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := op(c.Context(), claims.UserID, apptID)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Medicine     string `json:"medicine"`
		Dosage       string `json:"dosage"`
		Frequency    string `json:"frequency"`
		Instructions string `json:"instructions"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Complete(c.Context(), claims.UserID, apptID, appointment.PrescriptionRequest{
		Medicine:     body.Medicine,
		Dosage:       body.Dosage,
		Frequency:    body.Frequency,
		Instructions: body.Instructions,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// GET /appointments/:id/prescription
func (h *AppointmentHandler) Prescription(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	rx, err := h.svc.ViewPrescription(c.Context(), claims.UserID, apptID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	if rx == nil {
		// Absence is a normal state rather than a fault.
		return ok(c, fiber.Map{"available": false})
	}

	return ok(c, fiber.Map{"available": true, "prescription": rx})
}

// POST /appointments/:id/feedback
func (h *AppointmentHandler) Feedback(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.SubmitFeedback(c.Context(), apptID, appointment.FeedbackRequest{
		RequesterID: claims.UserID,
		Rating:      body.Rating,
		Comment:     body.Comment,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}
