package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"ai-docview-be/pkg/view"
)

const DefaultTTL = 24 * time.Hour

// Store caches processed view results by content-addressed key. Entries are
// serialised on write so callers never share maps with the cache.
type Store interface {
	Get(ctx context.Context, key string) (view.ResultData, bool, error)
	Set(ctx context.Context, key string, data view.ResultData) error
	Delete(ctx context.Context, key string) error
}

// ViewKey scopes a document cache key to one view of one content snapshot.
// Re-ingesting new text under the same id can reproduce the same scores.
func ViewKey(cacheKey string, kind view.Kind, content string) string {
	return cacheKey + "/" + string(kind) + "/" + ContentDigest(content)
}

// ContentDigest is a short hex sha256 of the preprocessed content.
func ContentDigest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}

func encode(data view.ResultData) ([]byte, error) {
	return json.Marshal(data)
}

func decode(raw []byte) (view.ResultData, error) {
	var data view.ResultData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
