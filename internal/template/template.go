// Package template defines the consumed template-simplifier interface
// and a swappable default implementation. The scoring engine requires
// only that identical template outputs indicate "looks the same"
// commands for overlap scoring; the adapter's internal structure is
// intentionally opaque to every other package.
package template

import (
	"strings"

	"github.com/google/shlex"
)

// Simplifier turns a verbatim command string into a normalized
// template string. Production callers are free to inject their own
// (e.g. one backed by an argument-classifying NLP model); this
// package's DefaultSimplifier exists so that the CLI has a working
// implementation out of the box.
type Simplifier func(cmd string) string

// DefaultSimplifier tokenizes a command with shell-word rules and
// replaces argument tokens that look like paths, URLs, or numbers with
// placeholders, keeping the first token (the command name) and any
// flag-like tokens verbatim. Two commands that differ only in which
// file, URL, or number they operate on collapse to the same template.
func DefaultSimplifier(cmd string) string {
	tokens, err := shlex.Split(cmd)
	if err != nil || len(tokens) == 0 {
		return cmd
	}

	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		switch {
		case i == 0:
			out = append(out, tok)
		case len(tok) > 0 && tok[0] == '-':
			out = append(out, tok)
		case looksLikeURL(tok):
			out = append(out, "<url>")
		case looksLikePath(tok):
			out = append(out, "<path>")
		case looksLikeNumber(tok):
			out = append(out, "<num>")
		default:
			out = append(out, tok)
		}
	}

	return strings.Join(out, " ")
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "://")
}

func looksLikePath(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == '/' || s[0] == '~' || (len(s) > 1 && s[0] == '.' && s[1] == '/')
}

func looksLikeNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
