package queue

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		secs  int
		ok    bool
	}{
		{"03:25", 205, true},
		{"00:00", 0, true},
		{"1:02:03", 3723, true},
		{"00:00:00", 0, true},
		{"10:00:00", 36000, true},
		{"", 0, false},
		{"205", 0, false},
		{"1:2:3:4", 0, false},
		{"aa:bb", 0, false},
		{"-1:00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			secs, ok := parseDuration(tt.input)
			if secs != tt.secs || ok != tt.ok {
				t.Errorf("parseDuration(%q) = (%d, %v); want (%d, %v)", tt.input, secs, ok, tt.secs, tt.ok)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00:00"},
		{205, "00:03:25"},
		{3723, "01:02:03"},
		{36000, "10:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.secs); got != tt.want {
			t.Errorf("formatDuration(%d) = %q; want %q", tt.secs, got, tt.want)
		}
	}
}
