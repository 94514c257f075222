// Package textnorm cleans raw document text before it is chunked.
package textnorm

import "strings"

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize removes NUL bytes, folds CRLF and CR line endings into LF and
// collapses every run of whitespace into a single space. The result has no
// leading or trailing whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\x00", "")
	text = lineEndings.Replace(text)

	return strings.Join(strings.Fields(text), " ")
}
