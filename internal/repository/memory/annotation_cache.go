package memory

import (
	"canvas-annotations-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// AnnotationCache is the session-scoped in-memory mapping from composite key
// to annotation. It lives as long as the user's store and is emptied only by
// an explicit clear-all or by session eviction. Entries never expire on
// their own.
type AnnotationCache struct {
	cache *cache.Cache
}

func NewAnnotationCache() *AnnotationCache {
	return &AnnotationCache{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (c *AnnotationCache) Set(key string, annotation *entity.Annotation) {
	c.cache.Set(key, annotation, cache.NoExpiration)
}

func (c *AnnotationCache) Get(key string) (*entity.Annotation, bool) {
	if x, found := c.cache.Get(key); found {
		return x.(*entity.Annotation), true
	}
	return nil, false
}

func (c *AnnotationCache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *AnnotationCache) Keys() []string {
	items := c.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

func (c *AnnotationCache) Count() int {
	return c.cache.ItemCount()
}

func (c *AnnotationCache) Flush() {
	c.cache.Flush()
}
