package priosched

import "testing"

func TestCoercePriority(t *testing.T) {
	cases := []struct {
		in   PriorityLevel
		want PriorityLevel
	}{
		{Immediate, Immediate},
		{UserBlocking, UserBlocking},
		{Normal, Normal},
		{Low, Low},
		{Idle, Idle},
		{NoPriority, Normal},
		{PriorityLevel(99), Normal},
		{PriorityLevel(-1), Normal},
	}
	for _, c := range cases {
		if got := coercePriority(c.in); got != c.want {
			t.Errorf("coercePriority(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTimeoutFor(t *testing.T) {
	cases := []struct {
		priority PriorityLevel
		want     float64
	}{
		{Immediate, -1},
		{UserBlocking, 250},
		{Normal, 5000},
		{Low, 10000},
		{Idle, MAX_31BIT},
	}
	for _, c := range cases {
		if got := timeoutFor(c.priority); got != c.want {
			t.Errorf("timeoutFor(%v) = %v, want %v", c.priority, got, c.want)
		}
	}
}

func TestPriorityLevelString(t *testing.T) {
	if Normal.String() != "Normal" {
		t.Errorf("Normal.String() = %q, want %q", Normal.String(), "Normal")
	}
	if PriorityLevel(42).String() != "Unknown" {
		t.Errorf("out-of-range String() = %q, want %q", PriorityLevel(42).String(), "Unknown")
	}
}
