package model

import "strings"

// Document is one source file of the corpus. Documents are loaded once at
// startup (or on reindex) and never mutated afterwards.
type Document struct {
	ID      string // file name, unique within the corpus
	Section string // human-readable section derived from the file name
	Label   Label
	Text    string
}

// DocLabelRule maps a document name to a label by substring match.
type DocLabelRule struct {
	NameContains string
	Label        Label
}

// LabelForName derives a document's label from its file name. Rules are
// checked in order; the first case-insensitive substring match wins and
// unmatched names fall back to the default label.
func LabelForName(name string, rules []DocLabelRule, fallback Label) Label {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.NameContains != "" && strings.Contains(lower, strings.ToLower(r.NameContains)) {
			return r.Label
		}
	}
	return fallback
}

// SectionFromFileName turns a corpus file name like "01_minimum_wage.txt"
// into a display section name like "Minimum Wage". A leading numeric prefix
// up to the first underscore is dropped.
func SectionFromFileName(name string) string {
	base := name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if i := strings.Index(base, "_"); i > 0 && isDigits(base[:i]) {
		base = base[i+1:]
	}
	words := strings.Split(base, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
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
