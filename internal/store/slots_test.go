package store

import "testing"

func TestValidSlot(t *testing.T) {
	tests := []struct {
		name string
		slot string
		want bool
	}{
		{"first morning slot", "09:00", true},
		{"last morning slot", "11:30", true},
		{"first afternoon slot", "14:00", true},
		{"last afternoon slot", "16:30", true},
		{"lunch break", "12:00", false},
		{"off-grid quarter hour", "09:15", false},
		{"before opening", "08:30", false},
		{"after closing", "17:00", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSlot(tt.slot); got != tt.want {
				t.Errorf("ValidSlot(%q) = %v, want %v", tt.slot, got, tt.want)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	slots := Slots()
	if len(slots) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i-1] >= slots[i] {
			t.Errorf("slots not in chronological order: %q before %q", slots[i-1], slots[i])
		}
	}

	// Mutating the returned slice must not affect the slot set.
	slots[0] = "00:00"
	if !ValidSlot("09:00") {
		t.Error("slot set changed through returned slice")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
