package confidence

import "testing"

func TestFromSamples(t *testing.T) {
	cases := []struct {
		name              string
		usableRows        int
		regressionSamples int
		want              Label
	}{
		{"no data", 0, 0, Low},
		{"just below medium", 19, 19, Low},
		{"medium", 20, 20, Medium},
		{"high", 60, 30, High},
		{"very high", 180, 30, VeryHigh},
		{"well past very high", 400, 200, VeryHigh},
		{"very high but thin regression", 200, 9, High},
		{"high but thin regression", 90, 5, Medium},
		{"medium but thin regression", 25, 3, Low},
		{"low stays low", 10, 0, Low},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromSamples(tc.usableRows, tc.regressionSamples); got != tc.want {
				t.Errorf("FromSamples(%d, %d) = %s, want %s", tc.usableRows, tc.regressionSamples, got, tc.want)
			}
		})
	}
}

func TestDowngrade(t *testing.T) {
	if got := Downgrade(VeryHigh); got != High {
		t.Errorf("Downgrade(VeryHigh) = %s, want High", got)
	}
	if got := Downgrade(Low); got != Low {
		t.Errorf("Downgrade(Low) = %s, want Low (floor)", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-0.3); got != 0 {
		t.Errorf("Clamp(-0.3) = %v, want 0", got)
	}
	if got := Clamp(1.7); got != 1 {
		t.Errorf("Clamp(1.7) = %v, want 1", got)
	}
	if got := Clamp(0.42); got != 0.42 {
		t.Errorf("Clamp(0.42) = %v, want pass-through", got)
	}
}
