// Package wordlist provides word list filtering helpers.
package wordlist

import "unicode"

// FilterPlain reports whether word is a single printable token.
func FilterPlain(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if unicode.IsSpace(r) || unicode.IsControl(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
