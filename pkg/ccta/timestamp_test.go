package ccta

import "testing"

func TestDayTruncates(t *testing.T) {
	const oneDay = secondsPerDay
	midnight := uint32(20 * oneDay)
	noon := midnight + oneDay/2
	if got := day(noon); got != midnight {
		t.Fatalf("day(noon) = %d, want %d", got, midnight)
	}
	if got := day(midnight); got != midnight {
		t.Fatalf("day(midnight) = %d, want %d", got, midnight)
	}
}

func TestOffsetFromToday(t *testing.T) {
	now := uint32(100 * secondsPerDay)
	cases := []struct {
		saved uint32
		want  int64
	}{
		{now, 0},
		{now - secondsPerDay, -1},
		{now - 5*secondsPerDay, -5},
		{now + secondsPerDay, 1},
	}
	for _, c := range cases {
		if got := offsetFromToday(c.saved, now); got != c.want {
			t.Errorf("offsetFromToday(%d, %d) = %d, want %d", c.saved, now, got, c.want)
		}
	}
}

func TestDaysSince(t *testing.T) {
	now := uint32(100 * secondsPerDay)
	if got := daysSince(now-3*secondsPerDay, now); got != 3 {
		t.Errorf("daysSince(3 days ago, now) = %d, want 3", got)
	}
	if got := daysSince(now, now); got != 0 {
		t.Errorf("daysSince(now, now) = %d, want 0", got)
	}
}

func TestAdjustSelectionRange(t *testing.T) {
	cases := []struct {
		name                     string
		numDays                  uint32
		desiredStart, desiredEnd int64
		todayOffset              int64
		wantS, wantE             uint32
	}{
		{"aligned, within window", 2, 0, 1, 0, 0, 1},
		{"stale by one day, today window excluded", 2, 0, 1, -1, 0, 0},
		{"stale by one day, yesterday window included", 2, 1, 2, -1, 0, 1},
		{"wide caller window clamps to storage", 2, 0, 60, 0, 0, 2},
		{"reversed desired range clamps empty", 2, 2, 1, 0, 2, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, e := adjustSelectionRange(c.numDays, c.desiredStart, c.desiredEnd, c.todayOffset)
			if s != c.wantS || e != c.wantE {
				t.Errorf("adjustSelectionRange(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
					c.numDays, c.desiredStart, c.desiredEnd, c.todayOffset, s, e, c.wantS, c.wantE)
			}
		})
	}
}
