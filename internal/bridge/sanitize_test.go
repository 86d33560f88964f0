package bridge

import "testing"

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"main", "main"},
		{"my session", "my_session"},
		{"a/b\\c", "a_b_c"},
		{"dev-1.2", "dev-1.2"},
		{"naïve", "na_ve"}, // \w is ASCII-only in RE2
		{"tab\there", "tab_here"},
		{"", ""},
		{"$(rm -rf)", "__rm_-rf_"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWindowDirName(t *testing.T) {
	if got := WindowDirName(3, "my window"); got != "3-my_window" {
		t.Errorf("WindowDirName = %q, want %q", got, "3-my_window")
	}
	if got := WindowDirName(0, ""); got != "0-" {
		t.Errorf("WindowDirName = %q, want %q", got, "0-")
	}
}
