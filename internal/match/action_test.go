package match

import (
	"testing"
)

func TestNewActionsRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
	}{
		{"empty name", []Action{{Name: "", Duration: Fixed(1)}}},
		{"reserved name", []Action{{Name: PassAction, Duration: Fixed(1)}}},
		{"no sampler", []Action{{Name: "drive"}}},
		{"duplicate", []Action{
			{Name: "drive", Duration: Fixed(1)},
			{Name: "drive", Duration: Fixed(2)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewActions(tt.actions...); err == nil {
				t.Error("Expected NewActions to fail")
			}
		})
	}
}

func TestActionsLookup(t *testing.T) {
	set := MustActions(
		Action{Name: "intake", Duration: Fixed(3)},
		Action{Name: "score", Duration: Fixed(2)},
	)

	if set.Len() != 2 {
		t.Errorf("Expected 2 actions, got %d", set.Len())
	}
	if _, ok := set.Lookup("score"); !ok {
		t.Error("Expected to find score")
	}
	if _, ok := set.Lookup("fly"); ok {
		t.Error("Unregistered action should not be found")
	}

	names := set.Names()
	if names[0] != "intake" || names[1] != "score" {
		t.Errorf("Names() should keep registration order, got %v", names)
	}
	names[0] = "mutated"
	if set.Names()[0] != "intake" {
		t.Error("Names() must return a copy")
	}
}

func TestMustActionsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustActions to panic on duplicate names")
		}
	}()
	MustActions(Action{Name: "a", Duration: Fixed(1)}, Action{Name: "a", Duration: Fixed(1)})
}

func TestSamplers(t *testing.T) {
	r := NewRand(99)

	u := Uniform{Min: 2, Max: 5}
	n := Normal{Mean: 1, StdDev: 3, Min: 0.25}
	sawClamp := false
	for i := 0; i < 1000; i++ {
		if v := u.Sample(r); v < 2 || v >= 5 {
			t.Fatalf("Uniform sample %v outside [2, 5)", v)
		}
		v := n.Sample(r)
		if v < 0.25 {
			t.Fatalf("Normal sample %v below Min", v)
		}
		if v == 0.25 {
			sawClamp = true
		}
	}
	if !sawClamp {
		t.Error("Expected some Normal samples to be clamped at Min")
	}

	if Fixed(4).Sample(nil) != 4 {
		t.Error("Fixed should ignore the random source")
	}
}

func TestPreconditions(t *testing.T) {
	s := NewStatus(DefaultTiming(), func(f Flags) {
		f.SetBool("has_coral", true)
		f.Set("coral_l4", 12)
	})
	v := s.View()

	tests := []struct {
		name string
		p    Precondition
		want bool
	}{
		{"flag set", RequireFlag("has_coral"), true},
		{"flag clear", RequireNoFlag("has_coral"), false},
		{"at least", RequireAtLeast("coral_l4", 12), true},
		{"below", RequireBelow("coral_l4", 12), false},
		{"auton phase", RequirePhase(PhaseAuton), true},
		{"teleop phase", RequirePhase(PhaseTeleop, PhaseEndgame), false},
	}
	for _, tt := range tests {
		if got := tt.p.Check(v); got != tt.want {
			t.Errorf("%s (%s): got %v, want %v", tt.name, tt.p.Desc, got, tt.want)
		}
	}

	place := Action{
		Name:     "place_l4",
		Duration: Fixed(2),
		Requires: []Precondition{RequireFlag("has_coral"), RequireBelow("coral_l4", 12)},
	}
	if place.Allowed(v) {
		t.Error("place_l4 should be blocked when the level is full")
	}
	if p, unmet := place.unmet(v); !unmet || p.Desc != "coral_l4 < 12" {
		t.Errorf("Expected unmet precondition coral_l4 < 12, got %q", p.Desc)
	}
}
