package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"ai-docview-be/pkg/view"
)

const cacheKeyPrefix = "dv:"

// CacheKey derives a deterministic key from what was measured about a document.
// It deliberately ignores the recommendation so threshold or fallback changes
// never invalidate cached results.
func CacheKey(documentID string, scores Scores) string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(documentID)
	sb.WriteByte(0)
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		v := scores[view.Kind(k)]
		if v == 0 {
			v = 0 // fold -0 into 0
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
