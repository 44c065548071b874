package detect

import (
	"testing"

	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_OrderIndependent(t *testing.T) {
	a := Scores{}
	a[view.KindQA] = 0.8
	a[view.KindSystem] = 0.1
	a[view.KindLearning] = 0.35

	b := Scores{}
	b[view.KindLearning] = 0.35
	b[view.KindSystem] = 0.1
	b[view.KindQA] = 0.8

	for i := 0; i < 20; i++ {
		assert.Equal(t, CacheKey("doc-1", a), CacheKey("doc-1", b))
	}
}

func TestCacheKey_SensitiveToScoresAndDocument(t *testing.T) {
	base := Scores{view.KindQA: 0.8, view.KindSystem: 0.1, view.KindLearning: 0.35}
	key := CacheKey("doc-1", base)

	changed := base.Clone()
	changed[view.KindSystem] = 0.1000001
	assert.NotEqual(t, key, CacheKey("doc-1", changed))

	assert.NotEqual(t, key, CacheKey("doc-2", base))

	extra := base.Clone()
	extra[view.Kind("mindmap")] = 0
	assert.NotEqual(t, key, CacheKey("doc-1", extra))
}

func TestCacheKey_NegativeZero(t *testing.T) {
	var zero float64
	negZero := -zero
	assert.Equal(t,
		CacheKey("doc", Scores{view.KindQA: 0}),
		CacheKey("doc", Scores{view.KindQA: negZero}),
	)
}

func TestCacheKey_Format(t *testing.T) {
	key := CacheKey("doc-1", Scores{view.KindQA: 1})
	assert.Len(t, key, len(cacheKeyPrefix)+64)
	assert.Equal(t, cacheKeyPrefix, key[:len(cacheKeyPrefix)])
}
