package models

import "testing"

func TestProofTypeValid(t *testing.T) {
	for _, p := range AllProofTypes {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if ProofType("screenshots").Valid() {
		t.Error("unknown proof type should be invalid")
	}
}

func TestPassFailBlocking(t *testing.T) {
	tests := []struct {
		verdict PassFail
		want    bool
	}{
		{VerdictPass, false},
		{VerdictFail, true},
		{VerdictWarning, false},
		{VerdictInfo, false},
	}

	for _, tt := range tests {
		if got := tt.verdict.Blocking(); got != tt.want {
			t.Errorf("%s.Blocking() = %v, want %v", tt.verdict, got, tt.want)
		}
	}
}
