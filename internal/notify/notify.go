// Package notify turns appointment lifecycle events into best-effort
// email and SMS notices. Delivery failures are logged and never reach
// the request path that produced the event.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/pkg/email"
	"github.com/caretap/caretap_backend/pkg/sms"
)

type Notifier struct {
	db    store.Store
	email *email.Client
	sms   *sms.Client

	// smsTemplateID is the provider-side template used for all
	// appointment notices.
	smsTemplateID string
}

func New(db store.Store, emailCli *email.Client, smsCli *sms.Client, smsTemplateID string) *Notifier {
	return &Notifier{db: db, email: emailCli, sms: smsCli, smsTemplateID: smsTemplateID}
}

// Handle dispatches the notices one event warrants. It is called from a
// bus subscription goroutine, never from a request handler.
func (n *Notifier) Handle(ctx context.Context, e events.Event) {
	a := e.Appointment
	if a == nil {
		return
	}

	subject, body, recipient := n.compose(e)
	if recipient == uuid.Nil {
		return
	}

	u, err := n.db.GetUser(ctx, recipient)
	if err != nil {
		slog.Warn("notify: recipient lookup failed", "user_id", recipient, "err", err)
		return
	}

	if n.email != nil && n.email.IsEnabled() && u.Email != "" {
		err := n.email.Send(ctx, email.Message{
			To:       []string{u.Email},
			Subject:  subject,
			TextBody: body,
		})
		if err != nil {
			slog.Warn("notify: email failed", "event", e.Type, "appointment_id", a.ID, "err", err)
		}
	}

	if n.sms != nil && n.sms.IsEnabled() && u.Phone != "" {
		err := n.sms.SendTemplate(ctx, u.Phone, n.smsTemplateID, map[string]string{
			"DATE": a.Date,
			"TIME": a.Time,
		})
		if err != nil {
			slog.Warn("notify: sms failed", "event", e.Type, "appointment_id", a.ID, "err", err)
		}
	}
}

// compose picks the recipient and wording for one event. Booking
// notices go to the doctor; everything after that goes to the patient.
func (n *Notifier) compose(e events.Event) (subject, body string, recipient uuid.UUID) {
	a := e.Appointment
	when := fmt.Sprintf("%s at %s", a.Date, a.Time)

	switch e.Type {
	case events.TypeBooked:
		return "New appointment request",
			fmt.Sprintf("%s requested an appointment on %s.", a.PatientName, when),
			a.DoctorID
	case events.TypeConfirmed:
		return "Appointment confirmed",
			fmt.Sprintf("Dr. %s confirmed your appointment on %s.", a.DoctorName, when),
			a.PatientID
	case events.TypeCancelled:
		return "Appointment declined",
			fmt.Sprintf("Your appointment request for %s was declined.", when),
			a.PatientID
	case events.TypeCompleted:
		return "Visit completed",
			fmt.Sprintf("Your visit on %s is complete. Your prescription is now available.", when),
			a.PatientID
	default:
		return "", "", uuid.Nil
	}
}

// Run drains a firehose subscription until the context ends or the
// subscription closes.
func (n *Notifier) Run(ctx context.Context, sub events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			n.Handle(ctx, e)
		}
	}
}
