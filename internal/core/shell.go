// Package core holds small string helpers shared by the command builders.
package core

import "strings"

// ShellEscapePosix returns a single shell token using single-quote strategy,
// including surrounding single quotes.
// example: abc -> 'abc'
// example: a'b -> 'a'"'"'b'
// example: "" -> ''
func ShellEscapePosix(s string) string {
	if s == "" {
		return "''"
	}
	// 'a'b' => 'a'"'"'b'
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}

// ShellCommand joins program and args into one command string, quoting only
// the tokens that need it. The result is what dvc stores as a stage `cmd`,
// which dvc later hands to a shell.
// example: ("sh", ".toth/stages/clean.sh") -> sh .toth/stages/clean.sh
// example: ("python", "my script.py") -> python 'my script.py'
func ShellCommand(program string, args ...string) string {
	tokens := make([]string, 0, len(args)+1)
	for _, tok := range append([]string{program}, args...) {
		if needsQuoting(tok) {
			tok = ShellEscapePosix(tok)
		}
		tokens = append(tokens, tok)
	}
	return strings.Join(tokens, " ")
}

// needsQuoting reports whether tok contains anything outside the safe set.
func needsQuoting(tok string) bool {
	if tok == "" {
		return true
	}
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:,+@%", r):
		default:
			return true
		}
	}
	return false
}
