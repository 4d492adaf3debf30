package attendance

import (
	"errors"
	"testing"
)

var allConfigs = []Config{
	{MarkingSolo, SubjectIndividual},
	{MarkingSolo, SubjectGroup},
	{MarkingDuo, SubjectIndividual},
	{MarkingDuo, SubjectGroup},
}

var allActions = []Action{ActionCheckIn, ActionCheckOut, ActionBoth}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		cfg    Config
		action Action
		dir    Direction
		want   string
		flag   Flag
	}{
		{Config{MarkingSolo, SubjectIndividual}, ActionBoth, DirectionMark, "/attendance/solo/mark/BOTH/s1/sch1", FlagAttendance},
		{Config{MarkingSolo, SubjectGroup}, ActionBoth, DirectionMark, "/attendance/team/mark/BOTH/s1/sch1", FlagAttendance},
		{Config{MarkingSolo, SubjectIndividual}, ActionBoth, DirectionUnmark, "/attendance/solo/unMark/BOTH/s1/sch1", FlagAttendance},
		{Config{MarkingDuo, SubjectIndividual}, ActionCheckIn, DirectionMark, "/attendance/solo/mark/IN/s1/sch1", FlagCheckIn},
		{Config{MarkingDuo, SubjectIndividual}, ActionCheckOut, DirectionMark, "/attendance/solo/mark/OUT/s1/sch1", FlagCheckOut},
		{Config{MarkingDuo, SubjectGroup}, ActionCheckIn, DirectionMark, "/attendance/team/mark/IN/s1/sch1", FlagCheckIn},
		{Config{MarkingDuo, SubjectGroup}, ActionCheckOut, DirectionUnmark, "/attendance/team/unMark/OUT/s1/sch1", FlagCheckOut},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r, err := Resolve(tt.cfg, tt.action, tt.dir)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got := r.Path("s1", "sch1"); got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
			if r.Flag != tt.flag {
				t.Errorf("flag = %v, want %v", r.Flag, tt.flag)
			}
		})
	}
}

func TestResolveRejectsUnmappedCombinations(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		action Action
	}{
		{"solo checkin", Config{MarkingSolo, SubjectIndividual}, ActionCheckIn},
		{"solo checkout", Config{MarkingSolo, SubjectGroup}, ActionCheckOut},
		{"duo both", Config{MarkingDuo, SubjectIndividual}, ActionBoth},
		{"unknown marking", Config{"TRIO", SubjectIndividual}, ActionBoth},
		{"unknown subject", Config{MarkingDuo, "CROWD"}, ActionCheckIn},
		{"unknown action", Config{MarkingDuo, SubjectIndividual}, "WAVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, dir := range []Direction{DirectionMark, DirectionUnmark} {
				if _, err := Resolve(tt.cfg, tt.action, dir); !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("%s: expected ErrInvalidConfiguration, got %v", dir, err)
				}
			}
		})
	}
}

func TestEachConfigurationHasDistinctEndpoints(t *testing.T) {
	for _, cfg := range allConfigs {
		seen := map[string]Action{}
		for _, dir := range []Direction{DirectionMark, DirectionUnmark} {
			for _, a := range allActions {
				r, err := Resolve(cfg, a, dir)
				if err != nil {
					continue
				}
				p := r.Path("subject", "schedule")
				if prev, dup := seen[p]; dup {
					t.Errorf("%v: %s and %s both resolve to %s", cfg, prev, a, p)
				}
				seen[p] = a
			}
		}
		// one mark and one unmark per supported action
		if want := 2 * len(Actions(cfg.MarkingType)); len(seen) != want {
			t.Errorf("%v: %d endpoints, want %d", cfg, len(seen), want)
		}
	}
}

func TestRouteTableSize(t *testing.T) {
	if len(routes) != 12 {
		t.Fatalf("route table has %d entries, want 12", len(routes))
	}
}

func TestPathEscapesIDs(t *testing.T) {
	r, err := Resolve(Config{MarkingSolo, SubjectIndividual}, ActionBoth, DirectionMark)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.Path("a/b", "c d"), "/attendance/solo/mark/BOTH/a%2Fb/c%20d"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}
