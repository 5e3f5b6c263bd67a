package schedule

import (
	"reflect"
	"testing"
)

func TestClassify_Bands(t *testing.T) {
	slots := []TimeSlot{
		{Time: "08:00", Display: "08:00 AM", Available: true},
		{Time: "11:30", Display: "11:30 AM", Available: false},
		{Time: "12:00", Display: "12:00 PM", Available: true},
		{Time: "13:30", Display: "01:30 PM", Available: true},
		{Time: "16:30", Display: "04:30 PM", Available: true},
		{Time: "17:00", Display: "05:00 PM", Available: true},
		{Time: "23:30", Display: "11:30 PM", Available: false},
	}
	b := Classify(slots)

	wantMorning := []string{"08:00", "11:30"}
	wantAfternoon := []string{"12:00", "13:30", "16:30"}
	wantEvening := []string{"17:00", "23:30"}
	if got := times(b.Morning); !reflect.DeepEqual(got, wantMorning) {
		t.Errorf("morning = %v, want %v", got, wantMorning)
	}
	if got := times(b.Afternoon); !reflect.DeepEqual(got, wantAfternoon) {
		t.Errorf("afternoon = %v, want %v", got, wantAfternoon)
	}
	if got := times(b.Evening); !reflect.DeepEqual(got, wantEvening) {
		t.Errorf("evening = %v, want %v", got, wantEvening)
	}
}

func TestClassify_DropsInvalidAndEarly(t *testing.T) {
	slots := []TimeSlot{
		{Time: "07:59"},  // before opening
		{Time: "23:60"},  // bad minute
		{Time: "24:00"},  // bad hour
		{Time: "noon"},   // no separator
		{Time: "aa:00"},  // bad hour text
		{Time: "09:00"},
	}
	b := Classify(slots)
	total := len(b.Morning) + len(b.Afternoon) + len(b.Evening)
	if total != 1 || b.Morning[0].Time != "09:00" {
		t.Fatalf("expected only 09:00 to survive, got %+v", b)
	}
}

func TestClassify_EmptyInputYieldsEmptySlices(t *testing.T) {
	b := Classify(nil)
	if b.Morning == nil || b.Afternoon == nil || b.Evening == nil {
		t.Fatal("bands must be empty slices, not nil")
	}
	if len(b.Morning)+len(b.Afternoon)+len(b.Evening) != 0 {
		t.Fatal("expected no slots")
	}
}

func TestClassify_PreservesAvailability(t *testing.T) {
	b := Classify([]TimeSlot{{Time: "10:00", Display: "10:00 AM", Available: false}})
	if len(b.Morning) != 1 || b.Morning[0].Available {
		t.Fatalf("slot should pass through unchanged, got %+v", b.Morning)
	}
}

func times(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}
