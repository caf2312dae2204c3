package core

import "testing"

func TestShellEscapePosix_Table(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple", "abc", "'abc'"},
		{"single quote", "a'b", "'a'\"'\"'b'"},
		{"empty string", "", "''"},
		{"spaces", "a b c", "'a b c'"},
		{"double quotes", `a"b`, `'a"b'`},
		{"dollar sign", "a$b", "'a$b'"},
		{"backticks", "a`b", "'a`b'"},
		{"newline", "a\nb", "'a\nb'"},
		{"multiple single quotes", "a''b", "'a'\"'\"''\"'\"'b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShellEscapePosix(tt.input)
			if got != tt.expect {
				t.Errorf("ShellEscapePosix(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestShellCommand(t *testing.T) {
	tests := []struct {
		name    string
		program string
		args    []string
		expect  string
	}{
		{"bare program", "make", nil, "make"},
		{"safe args", "sh", []string{".toth/stages/clean.sh"}, "sh .toth/stages/clean.sh"},
		{"space in arg", "python", []string{"my script.py"}, "python 'my script.py'"},
		{"empty arg", "echo", []string{""}, "echo ''"},
		{"metachar", "echo", []string{"a;rm -rf /"}, "echo 'a;rm -rf /'"},
		{"key=value", "Rscript", []string{"--n=10"}, "Rscript --n=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShellCommand(tt.program, tt.args...)
			if got != tt.expect {
				t.Errorf("ShellCommand(%q, %q) = %q, want %q", tt.program, tt.args, got, tt.expect)
			}
		})
	}
}
