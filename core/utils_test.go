package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		in    string
		lower bool
		want  string
	}{
		{"  hello  ", false, "hello"},
		{"  Hello World ", false, "Hello World"},
		{" JaNe@Campus.TEST ", true, "jane@campus.test"},
		{"\t\n x \n", true, "x"},
		{"", false, ""},
	}
	for _, tt := range tests {
		if got := CleanString(tt.in, tt.lower); got != tt.want {
			t.Errorf("CleanString(%q, %t) = %q, want %q", tt.in, tt.lower, got, tt.want)
		}
	}
}

func TestEmailLocalPart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane.doe@campus.test", "jane.doe"},
		{"jane@x", "jane"},
		{"noatsign", "noatsign"},
		{"@leading", "@leading"},
	}
	for _, tt := range tests {
		if got := EmailLocalPart(tt.in); got != tt.want {
			t.Errorf("EmailLocalPart(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
