package postgres

import "testing"

func TestLikePrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"job:", "job:%"},
		{"50%_", `50\%\_%`},
		{`a\b`, `a\\b%`},
	}
	for _, tt := range tests {
		if got := likePrefix(tt.in); got != tt.want {
			t.Errorf("likePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
