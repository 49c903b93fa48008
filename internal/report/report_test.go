package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"jit-rca/internal/jit"
	"jit-rca/internal/records"
	"jit-rca/internal/rootcause"
)

func order(route, stop, until, actual string) records.OrderRecord {
	return records.OrderRecord{
		Date:           "2024-01-10",
		RouteID:        route,
		CustomerID:     "Z41102",
		ActivityCode:   "4",
		StopName:       stop,
		WindowFrom:     "08:00",
		WindowUntil:    until,
		PlannedArrival: "09:00",
		ActualArrival:  actual,
	}
}

func sample() []records.OrderRecord {
	return []records.OrderRecord{
		order("R1", "A", "10:00", "09:30"),
		order("R1", "B", "10:00", "10:04"),
		order("R1", "C", "10:00", "10:20"),
		order("R2", "D", "10:00", ""),
	}
}

func testParams() Params {
	return Params{Planner: rootcause.Params{Now: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}}
}

func TestTableOf(t *testing.T) {
	type row struct {
		Name    string   `json:"name"`
		Late    *float64 `json:"late_min,omitempty"`
		Ignored string   `json:"-"`
		hidden  int
	}
	late := 4.5

	empty := TableOf[row]("empty", nil)
	if len(empty.Columns) != 2 || empty.Columns[1] != "late_min" || empty.Rows == nil || len(empty.Rows) != 0 {
		t.Errorf("REGRESSION: empty table must keep its headers: %+v", empty)
	}

	tbl := TableOf("rows", []row{{Name: "a", Late: &late}, {Name: "b"}})
	if tbl.Rows[0][1] != 4.5 || tbl.Rows[1][1] != nil {
		t.Errorf("unexpected cells: %v", tbl.Rows)
	}
}

func TestBuild_EmptySnapshot(t *testing.T) {
	res, err := Build(context.Background(), nil, testParams())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(res.Tables) != 20 {
		t.Errorf("expected 20 tables, got %d", len(res.Tables))
	}
	for _, tbl := range res.Tables {
		if len(tbl.Columns) == 0 {
			t.Errorf("table %s has no columns", tbl.Name)
		}
	}
	if res.RootCause.Diagnosis.Message != rootcause.NoIssuesMessage {
		t.Errorf("expected the no-issues message, got %q", res.RootCause.Diagnosis.Message)
	}
}

func TestBuild(t *testing.T) {
	p := testParams()
	p.Filter = records.Filter{RouteID: "R1"}

	res, err := Build(context.Background(), sample(), p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.Compliance.Summary.Orders != 3 {
		t.Errorf("filter not applied: %d orders", res.Compliance.Summary.Orders)
	}

	dist, ok := res.Table("bucket_distribution")
	if !ok {
		t.Fatal("bucket_distribution missing")
	}
	if len(dist.Rows) != 6 {
		t.Errorf("expected 5 bands plus unknown, got %d rows", len(dist.Rows))
	}
	if _, ok := res.Table("nope"); ok {
		t.Errorf("unexpected table")
	}
}

func TestBuild_UnknownBasis(t *testing.T) {
	p := testParams()
	p.Basis = "weather"
	if _, err := Build(context.Background(), sample(), p); err == nil {
		t.Error("expected an error for an unknown basis")
	}
}

func TestCompare(t *testing.T) {
	rows, err := Compare(context.Background(), sample(), testParams(), []int{15, 0, 5}, 2)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if len(rows) != 3 || rows[0].ToleranceMinutes != 0 || rows[2].ToleranceMinutes != 15 {
		t.Fatalf("expected rows by ascending tolerance, got %+v", rows)
	}

	want := []float64{25, 50, 50}
	for i, r := range rows {
		if r.Scenario2DelivPct != want[i] {
			t.Errorf("tolerance %d: S2 = %v, want %v", r.ToleranceMinutes, r.Scenario2DelivPct, want[i])
		}
		if i > 0 && r.Scenario2DelivPct < rows[i-1].Scenario2DelivPct {
			t.Errorf("REGRESSION: compliance must not drop as tolerance grows")
		}
	}
}

func TestCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compare(ctx, sample(), testParams(), []int{0, 5}, 1); err == nil {
		t.Error("expected the cancellation to surface")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	tables := []Table{
		TableOf("summary", []jit.Summary{{Orders: 3}}),
		TableOf[jit.OutsideDay]("outside_daily", nil),
	}
	if err := WriteText(&buf, tables); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "== summary (1 rows)") || !strings.Contains(out, "== outside_daily (0 rows)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "outside_pct") {
		t.Errorf("empty table must print its header")
	}
}

func TestWriteHTML(t *testing.T) {
	res, err := Build(context.Background(), sample(), testParams())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	now := time.Date(2024, 1, 10, 7, 30, 0, 0, time.UTC)

	t.Run("WithCharts", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteHTML(&buf, res, "JIT <Report>", true, now); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "JIT &lt;Report&gt;") {
			t.Errorf("REGRESSION: title must be escaped")
		}
		if !strings.Contains(out, `<pre class="mermaid">`) || strings.Contains(out, "```") {
			t.Errorf("charts must be embedded without their markdown fence")
		}
		if !strings.Contains(out, "2024-01-10 07:30") || !strings.Contains(out, "<h2>bucket_distribution</h2>") {
			t.Errorf("missing header or table")
		}
	})

	t.Run("WithoutCharts", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteHTML(&buf, res, "JIT", false, now); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Errorf("no chart script expected when charts are off")
		}
	})
}
