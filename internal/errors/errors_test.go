package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(PlanningError, "no plan produced for query graph")
	if !strings.Contains(err.Error(), "SQLSTATE KP001") {
		t.Errorf("expected SQLSTATE in message, got %q", err.Error())
	}

	err = err.WithDetailf("subgraph %s has no surviving plans", "{e1,e2}")
	if !strings.Contains(err.Error(), "DETAIL") {
		t.Errorf("expected DETAIL in message, got %q", err.Error())
	}
}

func TestIsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"matching code", TimeoutError(), PlanningTimeout, true},
		{"different code", TimeoutError(), PlanningError, false},
		{"generic error", errors.New("boom"), InternalError, false},
		{"nil error", nil, PlanningError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsError(tt.err, tt.code); got != tt.want {
				t.Errorf("IsError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorWrapsGeneric(t *testing.T) {
	kErr := GetError(errors.New("boom"))
	if kErr.Code != InternalError {
		t.Errorf("expected internal error code, got %s", kErr.Code)
	}
}

func TestHintInfeasibleError(t *testing.T) {
	err := HintInfeasibleError("c", "not connected to the rest of the hint").WithNode("c")
	if err.Code != HintInfeasible {
		t.Errorf("expected %s, got %s", HintInfeasible, err.Code)
	}
	if err.Node != "c" {
		t.Errorf("expected node name to be recorded, got %q", err.Node)
	}
}
