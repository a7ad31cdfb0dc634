package chunk

import "strings"

// Tokenize splits text into whitespace-delimited tokens. Chunk sizes and
// overlaps are measured in these tokens; the same function must be used
// everywhere chunk geometry matters so token counts stay consistent.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Join reassembles tokens into chunk text.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}
