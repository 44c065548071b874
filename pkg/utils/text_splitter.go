package utils

import "unicode"

// SplitText splits text into chunks of at most chunkSize runes, with overlap
// runes repeated at each boundary. A chunk ends at the last whitespace in its
// final quarter when there is one, so words are rarely cut in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < totalLen; {
		end := start + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end = softBoundary(runes, start, end, chunkSize/4)
		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func softBoundary(runes []rune, start, end, window int) int {
	for i := end; i > end-window && i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
