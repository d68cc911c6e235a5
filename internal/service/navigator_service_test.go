package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/pkg/auth"
	"canvas-annotations-be/pkg/canvas"
	"canvas-annotations-be/pkg/keys"
	"canvas-annotations-be/pkg/outline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMaterializer struct {
	mu      sync.Mutex
	indexes []int
}

func (m *recordingMaterializer) MaterializeSection(ctx context.Context, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes = append(m.indexes, index)
}

func (m *recordingMaterializer) seen() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.indexes))
	copy(out, m.indexes)
	return out
}

func TestNavigatorStartsAtZero(t *testing.T) {
	n := NewSectionNavigator(3, time.Millisecond, nil)
	assert.Equal(t, 0, n.CurrentIndex())
	assert.Equal(t, 3, n.SectionCount())
}

func TestNavigatorIgnoresOutOfRange(t *testing.T) {
	n := NewSectionNavigator(3, time.Millisecond, nil)

	n.GoTo(-1)
	assert.Equal(t, 0, n.CurrentIndex())

	n.GoTo(3)
	assert.Equal(t, 0, n.CurrentIndex())
}

func TestNavigatorPreviousAtZeroIsNoOp(t *testing.T) {
	n := NewSectionNavigator(3, time.Millisecond, nil)
	n.Previous()
	assert.Equal(t, 0, n.CurrentIndex())
}

func TestNavigatorNextClampsAtLastSection(t *testing.T) {
	n := NewSectionNavigator(3, time.Millisecond, nil)

	n.Next()
	assert.Equal(t, 1, n.CurrentIndex())
	n.Next()
	assert.Equal(t, 2, n.CurrentIndex())
	n.Next()
	assert.Equal(t, 2, n.CurrentIndex())
}

func TestNavigatorMaterializesAfterSettleDelay(t *testing.T) {
	m := &recordingMaterializer{}
	n := NewSectionNavigator(3, 5*time.Millisecond, m)

	n.GoTo(1)
	assert.Empty(t, m.seen(), "materialization must wait for the settle delay")

	assert.Eventually(t, func() bool {
		seen := m.seen()
		return len(seen) == 1 && seen[0] == 1
	}, time.Second, 2*time.Millisecond)
}

func TestNavigatorOutOfRangeNeverMaterializes(t *testing.T) {
	m := &recordingMaterializer{}
	n := NewSectionNavigator(2, time.Millisecond, m)

	n.GoTo(5)
	n.Previous()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, m.seen())
}

// mapSurfaceProvider serves pre-built surfaces keyed by section/question/part.
type mapSurfaceProvider struct {
	surfaces map[string]canvas.Surface
}

func (p *mapSurfaceProvider) key(section int, questionID, partID string) string {
	return fmt.Sprintf("%d/%s/%s", section, questionID, partID)
}

func (p *mapSurfaceProvider) add(section int, questionID, partID string, s canvas.Surface) {
	if p.surfaces == nil {
		p.surfaces = make(map[string]canvas.Surface)
	}
	p.surfaces[p.key(section, questionID, partID)] = s
}

func (p *mapSurfaceProvider) SurfaceFor(section int, questionID, partID string) canvas.Surface {
	return p.surfaces[p.key(section, questionID, partID)]
}

func TestSectionLoaderLoadsEveryQuestionOfTheSection(t *testing.T) {
	repo := newFakeRepo(500)
	svc := newTestService(repo, 500)

	doc := &outline.Outline{
		DocumentPath: "doc.tex",
		Sections: []outline.Section{
			{ID: "0", Questions: []outline.QuestionPart{{QuestionID: "1", PartID: "1"}}},
			{ID: "1", Questions: []outline.QuestionPart{
				{QuestionID: "2", PartID: "1"},
				{QuestionID: "2", PartID: "2"},
			}},
		},
	}

	// Annotate both canvases of section 1.
	s1 := "1"
	src := drawnSurface()
	_, err := svc.Save(context.Background(), src, "2", "1", &s1, "doc.tex")
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), src, "2", "2", &s1, "doc.tex")
	require.NoError(t, err)

	provider := &mapSurfaceProvider{}
	a := canvas.NewMemorySurface(32, 24)
	b := canvas.NewMemorySurface(32, 24)
	provider.add(1, "2", "1", a)
	provider.add(1, "2", "2", b)

	loader := NewSectionLoader(svc, doc, provider, nopLogger{})
	loader.MaterializeSection(context.Background(), 1)

	assert.True(t, surfacesEqual(t, src, a))
	assert.True(t, surfacesEqual(t, src, b))
}

func TestSectionLoaderSkipsUnknownSection(t *testing.T) {
	svc := newTestService(newFakeRepo(500), 500)
	doc := &outline.Outline{DocumentPath: "doc.tex"}

	loader := NewSectionLoader(svc, doc, &mapSurfaceProvider{}, nopLogger{})
	loader.MaterializeSection(context.Background(), 4) // out of range, no panic
}

func TestNavigatorDrivesSectionLoader(t *testing.T) {
	repo := newFakeRepo(500)
	svc := newTestService(repo, 500)

	doc := &outline.Outline{
		DocumentPath: "doc.tex",
		Sections: []outline.Section{
			{ID: "0", Questions: []outline.QuestionPart{{QuestionID: "1", PartID: "1"}}},
			{ID: "1", Questions: []outline.QuestionPart{{QuestionID: "2", PartID: "1"}}},
		},
	}

	s1 := "1"
	src := drawnSurface()
	_, err := svc.Save(context.Background(), src, "2", "1", &s1, "doc.tex")
	require.NoError(t, err)

	provider := &mapSurfaceProvider{}
	target := canvas.NewMemorySurface(32, 24)
	provider.add(1, "2", "1", target)

	loader := NewSectionLoader(svc, doc, provider, nopLogger{})
	nav := NewSectionNavigator(doc.SectionCount(), time.Millisecond, loader)

	nav.Next()

	assert.Eventually(t, func() bool {
		return surfacesEqual(t, src, target)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, nav.CurrentIndex())
}

func newTestRegistry(repo *fakeAnnotationRepo, settle time.Duration) *StoreRegistry {
	return NewStoreRegistry(&fakeFactory{repo: repo}, nil, nopLogger{}, 500, settle, time.Hour)
}

func TestStoreRegistryReusesAndEvicts(t *testing.T) {
	registry := newTestRegistry(newFakeRepo(500), time.Millisecond)

	a := registry.ForUser("u1")
	b := registry.ForUser("u1")
	assert.Same(t, a, b)

	other := registry.ForUser("u2")
	assert.NotSame(t, a, other)

	registry.Evict("u1")
	fresh := registry.ForUser("u1")
	assert.NotSame(t, a, fresh)
}

func TestStoreRegistryConcurrentFirstUseMintsOneStore(t *testing.T) {
	registry := newTestRegistry(newFakeRepo(500), time.Millisecond)

	const callers = 16
	stores := make([]IAnnotationService, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = registry.ForUser("u1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, stores[0], stores[i])
	}
}

func TestRegistryNavigationWarmsSessionCache(t *testing.T) {
	repo := newFakeRepo(500)
	registry := newTestRegistry(repo, time.Millisecond)

	// Seed the remote store for section 1's question, bypassing any cache.
	vec, err := canvas.Encode(drawnSurface())
	require.NoError(t, err)
	docID := keys.DocumentIdentifier("doc.tex")
	s1 := "1"
	key := keys.CompositeKey(docID, "2", "1", &s1)
	require.NoError(t, repo.Upsert(context.Background(), &entity.Annotation{
		UserID:       "u1",
		CompositeKey: key,
		DocumentID:   docID,
		QuestionID:   "2",
		PartID:       "1",
		SectionID:    &s1,
		VectorImage:  vec,
		Width:        32,
		Height:       24,
	}))

	doc := &outline.Outline{
		DocumentPath: "doc.tex",
		Sections: []outline.Section{
			{ID: "0", Questions: []outline.QuestionPart{{QuestionID: "1", PartID: "1"}}},
			{ID: "1", Questions: []outline.QuestionPart{{QuestionID: "2", PartID: "1"}}},
		},
	}
	nav := registry.RegisterOutline("u1", doc)
	assert.Equal(t, 0, nav.CurrentIndex())

	store := registry.ForUser("u1")
	require.Zero(t, store.CachedCount())

	nav.Next()

	assert.Eventually(t, func() bool {
		return store.CachedCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, store.CachedKeys(), key)
}

func TestRegistryOutlineReplacesNavigator(t *testing.T) {
	registry := newTestRegistry(newFakeRepo(500), time.Millisecond)

	_, ok := registry.Navigator("u1")
	assert.False(t, ok)

	doc := &outline.Outline{
		DocumentPath: "doc.tex",
		Sections:     []outline.Section{{ID: "0"}},
	}
	first := registry.RegisterOutline("u1", doc)
	second := registry.RegisterOutline("u1", doc)
	assert.NotSame(t, first, second)

	current, ok := registry.Navigator("u1")
	require.True(t, ok)
	assert.Same(t, second, current)
}

func TestDeferredSessionGatesStore(t *testing.T) {
	repo := newFakeRepo(500)
	session := auth.NewDeferredSession()
	svc := NewAnnotationService(&fakeFactory{repo: repo}, session, nil, nopLogger{}, 500)

	// Before resolution every operation degrades to unavailable.
	_, err := svc.Save(context.Background(), drawnSurface(), "1", "1", nil, "doc.tex")
	assert.ErrorIs(t, err, ErrUnavailable)

	session.Resolve(testUser)
	_, err = svc.Save(context.Background(), drawnSurface(), "1", "1", nil, "doc.tex")
	assert.NoError(t, err)
}
