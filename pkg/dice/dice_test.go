package dice

import "testing"

func TestRollRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		r := Roll()
		if r < 1 || r > 20 {
			t.Fatalf("Roll() = %d, want 1..20", r)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		result int
		want   string
	}{
		{1, OutcomeCritFail},
		{2, OutcomeFailure},
		{10, OutcomeFailure},
		{11, OutcomeSuccess},
		{15, OutcomeSuccess},
		{16, OutcomeCritSuccess},
		{20, OutcomeCritSuccess},
	}
	for _, tc := range tests {
		if got := Outcome(tc.result); got != tc.want {
			t.Errorf("Outcome(%d) = %q, want %q", tc.result, got, tc.want)
		}
	}
}

func TestRollText(t *testing.T) {
	got := RollText(17, OutcomeCritSuccess)
	want := "*Rolls D20... Result: 17* (Critical Success!)"
	if got != want {
		t.Errorf("RollText = %q, want %q", got, want)
	}
}
