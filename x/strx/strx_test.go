package strx

import "testing"

func TestCoalesce(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"", ""}, ""},
		{[]string{"", "LP803448"}, "LP803448"},
		{[]string{"LP502540", "LP803448"}, "LP502540"},
		{[]string{"", "", "c"}, "c"},
	}
	for _, c := range cases {
		if got := Coalesce(c.in...); got != c.want {
			t.Errorf("Coalesce(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
