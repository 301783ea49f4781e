package deploy

import (
	"strings"
	"testing"
)

func TestDefaultConfigurationValid(t *testing.T) {
	t.Parallel()

	if err := DefaultSchedule().Validate(); err != nil {
		t.Fatalf("DefaultSchedule().Validate() = %v", err)
	}
	if err := DefaultTimeline().Validate(); err != nil {
		t.Fatalf("DefaultTimeline().Validate() = %v", err)
	}
	if got := len(DefaultTimeline()); got != 13 {
		t.Fatalf("len(DefaultTimeline()) = %d, want 13", got)
	}
}

func TestScheduleValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Schedule)
		wantErr string
	}{
		{"start after end", func(s *Schedule) { s.Windows[0].Start, s.Windows[0].End = 0.2, 0.1 }, "must be before"},
		{"empty window", func(s *Schedule) { s.Windows[1].End = s.Windows[1].Start }, "must be before"},
		{"out of range", func(s *Schedule) { s.Windows[5].End = 1.2 }, "outside"},
		{"unordered starts", func(s *Schedule) { s.Windows[2].Start = 0.01 }, "precedes"},
		{"missing subsystem", func(s *Schedule) { s.Windows = s.Windows[:5] }, "missing window"},
		{"duplicate", func(s *Schedule) { s.Windows[1].Subsystem = SubsystemSolarArray }, "duplicate"},
		{"unknown subsystem", func(s *Schedule) { s.Windows[0].Subsystem = "antenna" }, "unknown subsystem"},
		{"unknown easing", func(s *Schedule) { s.Easing = "bounce" }, "unknown easing"},
		{"no windows", func(s *Schedule) { s.Windows = nil }, "no windows"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSchedule()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestTimelineValidateRejects(t *testing.T) {
	t.Parallel()

	if err := (Timeline{}).Validate(); err == nil {
		t.Fatal("empty timeline validated")
	}

	tl := DefaultTimeline()
	tl[3].Index = 7
	if err := tl.Validate(); err == nil {
		t.Fatal("timeline with wrong index validated")
	}

	tl = DefaultTimeline()
	tl[4].Day = 0
	if err := tl.Validate(); err == nil {
		t.Fatal("timeline with decreasing day validated")
	}
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	w := Window{Start: 0.2, End: 0.4}
	if !w.Contains(0.2) || w.Contains(0.4) || w.Contains(0.1) {
		t.Fatal("Contains should be half-open [start, end)")
	}
	last := Window{Start: 0.8, End: 1}
	if !last.Contains(1) {
		t.Fatal("window ending at 1 should contain 1")
	}
}

func TestSmoothstepEndpoints(t *testing.T) {
	t.Parallel()

	if Smoothstep(0) != 0 || Smoothstep(1) != 1 || Smoothstep(0.5) != 0.5 {
		t.Fatalf("Smoothstep endpoints wrong: %v %v %v", Smoothstep(0), Smoothstep(1), Smoothstep(0.5))
	}
}
