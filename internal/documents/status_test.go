package documents

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusUploaded, StatusQueued, true},
		{StatusQueued, StatusProcessing, true},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusFailed, true},
		{StatusUploaded, StatusProcessing, false},
		{StatusUploaded, StatusDone, false},
		{StatusQueued, StatusDone, false},
		{StatusQueued, StatusFailed, false},
		{StatusDone, StatusProcessing, false},
		{StatusDone, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusDone, false},
		{StatusProcessing, StatusProcessing, false},
		{"bogus", StatusQueued, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusUploaded, StatusQueued, StatusProcessing} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = true", status)
		}
	}
	for _, status := range []string{StatusDone, StatusFailed} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = false", status)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{StatusUploaded, StatusQueued, StatusProcessing, StatusDone, StatusFailed} {
		if !IsValidStatus(status) {
			t.Errorf("IsValidStatus(%s) = false", status)
		}
	}
	if IsValidStatus("pending") {
		t.Error("IsValidStatus(pending) = true")
	}
}
