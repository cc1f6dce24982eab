package ccta

import "testing"

func TestOutcomeStringRoundTrip(t *testing.T) {
	for _, o := range []Outcome{Pass, Failure, Error, Skip} {
		s := o.String()
		got, err := ParseOutcome(s)
		if err != nil {
			t.Fatalf("ParseOutcome(%q): %v", s, err)
		}
		if got != o {
			t.Errorf("ParseOutcome(%q) = %v, want %v", s, got, o)
		}
	}
}

func TestParseOutcomeRejectsUnknown(t *testing.T) {
	if _, err := ParseOutcome("bogus"); err == nil {
		t.Fatalf("ParseOutcome(\"bogus\") = nil error, want error")
	}
}
