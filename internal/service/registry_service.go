package service

import (
	"sync"
	"time"

	"canvas-annotations-be/internal/pkg/logger"
	"canvas-annotations-be/internal/repository/unitofwork"
	"canvas-annotations-be/pkg/auth"
	"canvas-annotations-be/pkg/outline"

	"github.com/patrickmn/go-cache"
)

// userSession bundles what one authenticated user holds between requests:
// the annotation store and, once a document outline is registered, its
// section navigator.
type userSession struct {
	store IAnnotationService

	mu        sync.Mutex
	navigator *SectionNavigator
}

// StoreRegistry hands out one annotation store per user session. Stores idle
// past the TTL are evicted and their caches dropped, which is how logout
// clearing manifests server-side.
type StoreRegistry struct {
	mu          sync.Mutex
	stores      *cache.Cache
	uowFactory  unitofwork.RepositoryFactory
	publisher   IPublisherService
	logger      logger.ILogger
	maxBatch    int
	settleDelay time.Duration
}

func NewStoreRegistry(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	log logger.ILogger,
	maxBatch int,
	settleDelay time.Duration,
	sessionTTL time.Duration,
) *StoreRegistry {
	stores := cache.New(sessionTTL, 10*time.Minute)
	stores.OnEvicted(func(userID string, v interface{}) {
		if session, ok := v.(*userSession); ok {
			session.store.Close()
		}
	})

	return &StoreRegistry{
		stores:      stores,
		uowFactory:  uowFactory,
		publisher:   publisher,
		logger:      log,
		maxBatch:    maxBatch,
		settleDelay: settleDelay,
	}
}

// session returns the user's session, creating it on first use. Creation is
// serialized so concurrent first requests cannot mint two stores for one
// user. Each access renews the session TTL.
func (r *StoreRegistry) session(userID string) *userSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.stores.Get(userID); found {
		session := x.(*userSession)
		r.stores.Set(userID, session, cache.DefaultExpiration)
		return session
	}

	session := &userSession{
		store: NewAnnotationService(
			r.uowFactory,
			auth.NewStaticSession(userID),
			r.publisher,
			r.logger,
			r.maxBatch,
		),
	}
	r.stores.Set(userID, session, cache.DefaultExpiration)
	return session
}

// ForUser returns the user's session store, creating it on first use.
func (r *StoreRegistry) ForUser(userID string) IAnnotationService {
	return r.session(userID).store
}

// RegisterOutline installs a navigator for the document. Navigation settles
// for the configured delay before each section's canvases are loaded to warm
// the session cache. A previously registered navigator is discarded, never
// reset.
func (r *StoreRegistry) RegisterOutline(userID string, doc *outline.Outline) *SectionNavigator {
	session := r.session(userID)

	loader := NewSectionLoader(session.store, doc, scratchSurfaces{}, r.logger)
	navigator := NewSectionNavigator(doc.SectionCount(), r.settleDelay, loader)

	session.mu.Lock()
	session.navigator = navigator
	session.mu.Unlock()
	return navigator
}

// Navigator returns the user's current navigator, if an outline was
// registered this session.
func (r *StoreRegistry) Navigator(userID string) (*SectionNavigator, bool) {
	session := r.session(userID)
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.navigator, session.navigator != nil
}

// Evict drops a user's session immediately (explicit logout).
func (r *StoreRegistry) Evict(userID string) {
	r.stores.Delete(userID)
}
