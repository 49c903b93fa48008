package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLookups(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"KnownChannel", c.Channel("Z41103"), "hyper"},
		{"UnknownChannel", c.Channel("Z99999"), ChannelOther},
		{"MappedReason", c.Cluster("late_dispatch"), "Transport/Dispatch"},
		{"ExplicitUnknownReason", c.Cluster("unknown"), ClusterUnknown},
		{"BlankReason", c.Cluster("   "), ClusterUnknown},
		{"UnmappedReason", c.Cluster("driver_sick"), ClusterOther},
		{"SuggestionFallback", c.Suggest("Nonexistent").Owner, "Quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if !c.AnalysisActivity("4") || !c.AnalysisActivity(" 5 ") || c.AnalysisActivity("6") {
		t.Errorf("default analysis activities should be exactly 4 and 5")
	}
}

func TestDefault_IsNotShared(t *testing.T) {
	a := Default()
	acts := a.AnalysisActivities()
	acts[0] = "99"

	if !Default().AnalysisActivity("4") || !a.AnalysisActivity("4") {
		t.Errorf("REGRESSION: catalog state leaked through AnalysisActivities()")
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
channels:
  C1: retail
analysis_activities: ["7"]
root_causes:
  flat_tyre: Fleet
suggestions:
  Fleet:
    action: Inspect tyres before departure
    owner: Fleet
    expected_lift: 0.8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Channel("C1") != "retail" || c.Channel("Z41102") != ChannelOther {
		t.Errorf("channel override not applied")
	}
	if !c.AnalysisActivity("7") || c.AnalysisActivity("4") {
		t.Errorf("activity override not applied")
	}
	if c.Cluster("flat_tyre") != "Fleet" || c.Cluster("late_dispatch") != ClusterOther {
		t.Errorf("root cause override not applied")
	}
	if s := c.Suggest("Fleet"); s.ExpectedLift != 0.8 {
		t.Errorf("suggestion override not applied: %+v", s)
	}
	if s := c.Suggest(ClusterUnknown); s.Owner != "Process Excellence" {
		t.Errorf("default suggestions must survive a partial override: %+v", s)
	}
}

func TestParse_RejectsNegativeLift(t *testing.T) {
	_, err := Parse([]byte("suggestions:\n  Other:\n    action: x\n    owner: y\n    expected_lift: -1\n"))
	if err == nil {
		t.Fatalf("expected an error for a negative expected_lift")
	}
}

func TestActive_Swap(t *testing.T) {
	a := NewActive(Default())
	next, err := Parse([]byte("channels:\n  Z1: test\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a.Set(next)
	if a.Get().Channel("Z1") != "test" {
		t.Errorf("active catalog was not swapped")
	}
}
