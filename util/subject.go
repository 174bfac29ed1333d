package util

import "strings"

// SubjectMatches reports whether subj matches pattern, where pattern may use
// the NATS wildcards * (one token) and > (one or more trailing tokens).
func SubjectMatches(pattern, subj string) bool {
	if pattern == subj {
		return true
	}
	want := strings.Split(pattern, ".")
	got := strings.Split(subj, ".")
	for i, tok := range want {
		if tok == ">" {
			return len(got) > i
		}
		if i >= len(got) || (tok != "*" && tok != got[i]) {
			return false
		}
	}
	return len(got) == len(want)
}
