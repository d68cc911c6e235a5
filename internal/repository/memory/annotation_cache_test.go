package memory

import (
	"testing"

	"canvas-annotations-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAnnotationCacheSetGetDelete(t *testing.T) {
	c := NewAnnotationCache()

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("k1", &entity.Annotation{CompositeKey: "k1", VectorImage: "<svg/>"})
	got, found := c.Get("k1")
	assert.True(t, found)
	assert.Equal(t, "k1", got.CompositeKey)

	c.Delete("k1")
	_, found = c.Get("k1")
	assert.False(t, found)
}

func TestAnnotationCacheOverwriteKeepsOneEntry(t *testing.T) {
	c := NewAnnotationCache()

	c.Set("k1", &entity.Annotation{CompositeKey: "k1", VectorImage: "a"})
	c.Set("k1", &entity.Annotation{CompositeKey: "k1", VectorImage: "b"})

	assert.Equal(t, 1, c.Count())
	got, _ := c.Get("k1")
	assert.Equal(t, "b", got.VectorImage)
}

func TestAnnotationCacheKeysAndFlush(t *testing.T) {
	c := NewAnnotationCache()
	c.Set("a", &entity.Annotation{})
	c.Set("b", &entity.Annotation{})

	keys := c.Keys()
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	c.Flush()
	assert.Zero(t, c.Count())
	assert.Empty(t, c.Keys())
}
