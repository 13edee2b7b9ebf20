package term

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"y", true}, // EOF without newline
		{"y\r\n", true},
		{"n\n", false},
		{"N\n", false},
		{"yes\n", false},
		{" y\n", false},
		{"\n", false},
		{"", false},
	}
	for _, c := range cases {
		if got := Confirm(strings.NewReader(c.in), ""); got != c.want {
			t.Errorf("Confirm(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file reported as a terminal")
	}

	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as a terminal")
	}
}

func TestConfigureHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	Configure()
	if Enabled() {
		t.Error("colors enabled despite NO_COLOR")
	}
	if Green != "" || Red != "" || Yellow != "" {
		t.Error("color variables not cleared")
	}
}
