package store

// DateLayout is the canonical calendar-date format of Appointment.Date.
// ISO dates compare correctly as plain strings, which the descending
// (date, time) ordering relies on.
const DateLayout = "2006-01-02"

// clinicSlots is the fixed set of bookable half-hour slots. Mornings run
// 09:00-11:30, afternoons 14:00-16:30; the clinic closes over lunch.
var clinicSlots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

// Slots returns the bookable time slots in chronological order.
func Slots() []string {
	out := make([]string, len(clinicSlots))
	copy(out, clinicSlots)
	return out
}

// ValidSlot reports whether t is a member of the clinic slot set.
func ValidSlot(t string) bool {
	for _, s := range clinicSlots {
		if s == t {
			return true
		}
	}
	return false
}
