package records

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateColumns(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		cols := append(append([]string{}, RequiredColumns...), ColReason)
		if err := ValidateColumns(cols); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		err := ValidateColumns([]string{ColDate, ColRouteID, ColStopName, ColActualArrival})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		want := []string{ColCustomerID, ColActivityCode, ColWindowFrom, ColWindowUntil, ColPlannedArrival}
		if !reflect.DeepEqual(vErr.Missing, want) {
			t.Errorf("Missing = %v, want %v", vErr.Missing, want)
		}
	})
}

func TestFilterApply(t *testing.T) {
	in := []OrderRecord{
		{Date: "2024-01-09", RouteID: "101", ActivityCode: "4", CustomerID: "Z41102"},
		{Date: "2024-01-10", RouteID: "101.0", ActivityCode: "4", CustomerID: "Z41103"},
		{Date: "2024-01-11", RouteID: "102", ActivityCode: "5", CustomerID: "Z41102"},
		{Date: "2024-01-12", RouteID: "101", ActivityCode: "4", CustomerID: "Z41102"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"NoFilter", Filter{}, 4},
		{"InclusiveRange", Filter{DateFrom: "2024-01-10", DateTo: "2024-01-11"}, 2},
		{"Activity", Filter{ActivityCode: "5"}, 1},
		{"RouteWithSpreadsheetSuffix", Filter{RouteID: "101"}, 3},
		{"Customer", Filter{CustomerID: "Z41102"}, 3},
		{"Combined", Filter{DateFrom: "2024-01-10", RouteID: "101", CustomerID: "Z41102"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.filter.Apply(in)); got != tt.want {
				t.Errorf("Apply() returned %d records, want %d", got, tt.want)
			}
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	d := 12.0
	in := []OrderRecord{{StopName: "A", ActualDuration: &d}}
	out := Clone(in)

	*out[0].ActualDuration = 99
	out[0].StopName = "B"

	if *in[0].ActualDuration != 12 || in[0].StopName != "A" {
		t.Errorf("REGRESSION: Clone shares state with its input: %+v", in[0])
	}
}
