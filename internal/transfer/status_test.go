package transfer

import "testing"

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
	}

	for _, test := range tests {
		if got := test.status.IsTerminal(); got != test.expected {
			t.Errorf("Status(%s).IsTerminal() = %v, expected %v", test.status, got, test.expected)
		}
	}
}

func TestStatusString(t *testing.T) {
	if StatusRunning.String() != "running" {
		t.Errorf("Status.String() = %s, expected running", StatusRunning)
	}
}
