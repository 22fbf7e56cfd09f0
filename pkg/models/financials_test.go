package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewStatementZeroFills(t *testing.T) {
	periods := []time.Time{
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	st := NewStatement(periods, map[string][]float64{
		"Free Cash Flow":      {100, math.NaN()},
		"Capital Expenditure": {-10, -20, -30, -40},
	})

	fcf := st.Rows["Free Cash Flow"]
	if len(fcf) != 3 || fcf[0] != 100 || fcf[1] != 0 || fcf[2] != 0 {
		t.Errorf("Free Cash Flow = %v, want [100 0 0]", fcf)
	}
	if capex := st.Rows["Capital Expenditure"]; len(capex) != 3 || capex[2] != -30 {
		t.Errorf("Capital Expenditure = %v, want truncated to 3 periods", capex)
	}
	if st.Columns() != 3 || st.Empty() {
		t.Errorf("Columns = %d, Empty = %v", st.Columns(), st.Empty())
	}
}

func TestStatementEmpty(t *testing.T) {
	var nilStmt *Statement
	tests := []struct {
		name string
		st   *Statement
		want bool
	}{
		{"nil", nilStmt, true},
		{"no periods", NewStatement(nil, map[string][]float64{"Net Income": {1}}), true},
		{"no rows", NewStatement([]time.Time{time.Now()}, nil), true},
		{"populated", NewStatement([]time.Time{time.Now()}, map[string][]float64{"Net Income": {1}}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
	if nilStmt.Columns() != 0 {
		t.Error("nil statement should have zero columns")
	}
}

func TestInvalidInputMatchesSentinel(t *testing.T) {
	err := InvalidInput("Ticker is required.")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("InvalidInput should match ErrInvalidInput")
	}
	if err.Error() != "Ticker is required." {
		t.Errorf("Error() = %q", err.Error())
	}
	var ie *InputError
	if !errors.As(err, &ie) || ie.Msg != "Ticker is required." {
		t.Errorf("errors.As = %+v", ie)
	}
	if errors.Is(errors.New("Ticker is required."), ErrInvalidInput) {
		t.Error("plain error must not match ErrInvalidInput")
	}
}
