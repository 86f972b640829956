package ledger

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to LineStatus
		want     bool
	}{
		{LineUnmatched, LineMatched, true},
		{LineUnmatched, LineIgnored, true},
		{LineMatched, LineUnmatched, true},
		{LineIgnored, LineUnmatched, true},
		{LineIgnored, LineMatched, false},
		{LineMatched, LineIgnored, false},
		{LineUnmatched, LineUnmatched, false},
		{LineMatched, LineMatched, false},
		{LineIgnored, LineIgnored, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
