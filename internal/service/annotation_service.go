package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"canvas-annotations-be/internal/constant"
	"canvas-annotations-be/internal/dto"
	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/internal/repository/memory"
	"canvas-annotations-be/internal/repository/specification"
	"canvas-annotations-be/internal/repository/unitofwork"
	"canvas-annotations-be/pkg/auth"
	"canvas-annotations-be/pkg/canvas"
	"canvas-annotations-be/pkg/events"
	"canvas-annotations-be/pkg/keys"

	"canvas-annotations-be/internal/pkg/logger"
)

// IAnnotationService is the persistence API for per-question canvas
// annotations: write-through saves, cache-first loads, per-document bulk
// loads and the user-initiated export/import/clear/delete operations.
//
// Reads and writes racing each other (a save against a section bulk load)
// reconcile by last write wins; the cache keeps no version vectors.
type IAnnotationService interface {
	Save(ctx context.Context, surface canvas.Surface, questionID, partID string, sectionID *string, documentPath string) (string, error)
	Load(ctx context.Context, surface canvas.Surface, questionID, partID string, sectionID *string, documentPath string) bool
	LoadAllForDocument(ctx context.Context, documentPath string)

	ExportAll(ctx context.Context) (*dto.ExportDocument, int, error)
	ImportAll(ctx context.Context, payload []byte) (int, error)
	ClearAll(ctx context.Context) error
	DeleteOne(ctx context.Context, questionID, partID string, sectionID *string, documentPath string) error

	CachedKeys() []string
	CachedCount() int
	IsLoading() bool
	HasEverBulkLoaded() bool

	// Close drops the session cache. Called on logout / session eviction.
	Close()
}

type annotationService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.AnnotationCache
	session    auth.Service
	publisher  IPublisherService
	logger     logger.ILogger
	maxBatch   int

	mu             sync.Mutex
	loading        bool
	everBulkLoaded bool
}

func NewAnnotationService(
	uowFactory unitofwork.RepositoryFactory,
	session auth.Service,
	publisher IPublisherService,
	log logger.ILogger,
	maxBatch int,
) IAnnotationService {
	return &annotationService{
		uowFactory: uowFactory,
		cache:      memory.NewAnnotationCache(),
		session:    session,
		publisher:  publisher,
		logger:     log,
		maxBatch:   maxBatch,
	}
}

// identity resolves the session user, logging a diagnostic when the store
// is operating without one.
func (s *annotationService) identity(op string) (string, bool) {
	id, ok := s.session.Identity()
	if !ok {
		s.logger.Warn("AnnotationService", "operation skipped: no user identity", map[string]interface{}{
			"operation": op,
		})
	}
	return id, ok
}

func (s *annotationService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// The audit trail is auxiliary; a publish failure never fails the
	// operation that produced it.
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("AnnotationService", "failed to publish annotation event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func (s *annotationService) Save(ctx context.Context, surface canvas.Surface, questionID, partID string, sectionID *string, documentPath string) (string, error) {
	userID, ok := s.identity("save")
	if !ok {
		return "", ErrUnavailable
	}

	docID := keys.DocumentIdentifier(documentPath)
	key := keys.CompositeKey(docID, questionID, partID, sectionID)

	vectorImage, err := canvas.Encode(surface)
	if err != nil {
		s.logger.Error("AnnotationService", "failed to encode surface", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", ErrUnavailable
	}

	record := &entity.Annotation{
		UserID:       userID,
		CompositeKey: key,
		DocumentID:   docID,
		QuestionID:   questionID,
		PartID:       partID,
		SectionID:    sectionID,
		VectorImage:  vectorImage,
		Width:        surface.Width(),
		Height:       surface.Height(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnnotationRepository().Upsert(ctx, record); err != nil {
		// Losing one write must not take the session down with it.
		s.logger.Error("AnnotationService", "failed to save annotation", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", ErrUnavailable
	}

	// The cache copy is client-stamped: it represents local state observed
	// now, not the authoritative write time.
	cached := *record
	cached.Timestamp = time.Now()
	s.cache.Set(key, &cached)

	s.publish(ctx, events.TypeAnnotationSaved, map[string]interface{}{
		"user_id": userID,
		"key":     key,
	})

	return vectorImage, nil
}

func (s *annotationService) Load(ctx context.Context, surface canvas.Surface, questionID, partID string, sectionID *string, documentPath string) bool {
	userID, ok := s.identity("load")
	if !ok {
		return false
	}

	docID := keys.DocumentIdentifier(documentPath)
	key := keys.CompositeKey(docID, questionID, partID, sectionID)

	if record, hit := s.cache.Get(key); hit {
		return s.decodeInto(ctx, record, surface, key)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.AnnotationRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userID},
		specification.ByCompositeKey{Key: key},
	)
	if err != nil {
		// A failed fetch and a missing annotation look the same to the
		// caller: the canvas simply stays blank.
		s.logger.Error("AnnotationService", "failed to load annotation", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	if record == nil {
		return false
	}

	s.cache.Set(key, record)
	return s.decodeInto(ctx, record, surface, key)
}

func (s *annotationService) decodeInto(ctx context.Context, record *entity.Annotation, surface canvas.Surface, key string) bool {
	if err := canvas.Decode(ctx, record.VectorImage, surface); err != nil {
		s.logger.Error("AnnotationService", "failed to decode annotation", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (s *annotationService) LoadAllForDocument(ctx context.Context, documentPath string) {
	userID, ok := s.identity("loadAllForDocument")
	if !ok {
		return
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	docID := keys.DocumentIdentifier(documentPath)

	// Full per-user scan with a client-side filter: the store has no index
	// on document_id. Acceptable while per-user counts stay in the low
	// thousands.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.AnnotationRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userID},
	)
	if err != nil {
		s.logger.Error("AnnotationService", "bulk load failed", map[string]interface{}{
			"document_id": docID,
			"error":       err.Error(),
		})
		return
	}

	merged := 0
	for _, record := range records {
		if record.DocumentID != docID {
			continue
		}
		s.cache.Set(record.CompositeKey, record)
		merged++
	}

	s.mu.Lock()
	s.everBulkLoaded = true
	s.mu.Unlock()

	s.publish(ctx, events.TypeAnnotationsLoaded, map[string]interface{}{
		"user_id":     userID,
		"document_id": docID,
		"merged":      merged,
	})
}

func (s *annotationService) ExportAll(ctx context.Context) (*dto.ExportDocument, int, error) {
	userID, ok := s.identity("exportAll")
	if !ok {
		return nil, 0, ErrUnavailable
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.AnnotationRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userID},
		specification.OrderBy{Field: "composite_key"},
	)
	if err != nil {
		return nil, 0, &ExportError{Err: err}
	}

	doc := &dto.ExportDocument{
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   constant.ExportFormatVersion,
		Source:    constant.ExportSource,
		Canvases:  make(map[string]dto.AnnotationRecord, len(records)),
	}
	for _, record := range records {
		doc.Canvases[record.CompositeKey] = toRecordDTO(record)
	}

	return doc, len(records), nil
}

func (s *annotationService) ImportAll(ctx context.Context, payload []byte) (int, error) {
	userID, ok := s.identity("importAll")
	if !ok {
		return 0, ErrUnavailable
	}

	var doc dto.ImportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, ErrInvalidImportFormat
	}
	if doc.Canvases == nil {
		return 0, ErrInvalidImportFormat
	}

	importedAt := time.Now()
	records := make([]*entity.Annotation, 0, len(doc.Canvases))
	for key, rec := range doc.Canvases {
		stamp := importedAt
		records = append(records, &entity.Annotation{
			UserID:       userID,
			CompositeKey: key,
			DocumentID:   rec.DocumentID,
			QuestionID:   rec.QuestionID,
			PartID:       rec.PartID,
			SectionID:    rec.SectionID,
			VectorImage:  rec.VectorImage,
			Width:        rec.Dimensions.Width,
			Height:       rec.Dimensions.Height,
			Timestamp:    stamp,
			ImportedAt:   &stamp,
			Source:       constant.ImportSource,
		})
	}

	// The payload may exceed one atomic batch. Chunks commit sequentially;
	// a mid-import failure reports how much of the prefix was written.
	written := 0
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AnnotationRepository()
	for start := 0; start < len(records); start += s.maxBatch {
		end := start + s.maxBatch
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		if err := repo.BatchUpsert(ctx, chunk); err != nil {
			return written, &ImportError{Written: written, Err: err}
		}
		for _, record := range chunk {
			s.cache.Set(record.CompositeKey, record)
		}
		written += len(chunk)
	}

	s.publish(ctx, events.TypeAnnotationsImport, map[string]interface{}{
		"user_id":  userID,
		"imported": written,
	})

	return written, nil
}

func (s *annotationService) ClearAll(ctx context.Context) error {
	userID, ok := s.identity("clearAll")
	if !ok {
		return ErrUnavailable
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AnnotationRepository()
	records, err := repo.FindAll(ctx, specification.OwnedBy{UserID: userID})
	if err != nil {
		return &ClearError{Err: err}
	}

	compositeKeys := make([]string, len(records))
	for i, record := range records {
		compositeKeys[i] = record.CompositeKey
	}

	deleted := 0
	for start := 0; start < len(compositeKeys); start += s.maxBatch {
		end := start + s.maxBatch
		if end > len(compositeKeys) {
			end = len(compositeKeys)
		}
		chunk := compositeKeys[start:end]
		if err := repo.BatchDelete(ctx, userID, chunk); err != nil {
			return &ClearError{Deleted: deleted, Err: err}
		}
		// Purge each committed chunk immediately so a later chunk failure
		// cannot leave the cache serving remotely-deleted records.
		for _, key := range chunk {
			s.cache.Delete(key)
		}
		deleted += len(chunk)
	}

	s.cache.Flush()

	s.publish(ctx, events.TypeAnnotationsClear, map[string]interface{}{
		"user_id": userID,
		"deleted": deleted,
	})

	return nil
}

func (s *annotationService) DeleteOne(ctx context.Context, questionID, partID string, sectionID *string, documentPath string) error {
	userID, ok := s.identity("deleteOne")
	if !ok {
		return ErrUnavailable
	}

	docID := keys.DocumentIdentifier(documentPath)
	key := keys.CompositeKey(docID, questionID, partID, sectionID)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnnotationRepository().Delete(ctx, userID, key); err != nil {
		return &DeleteError{Key: key, Err: err}
	}

	s.cache.Delete(key)

	s.publish(ctx, events.TypeAnnotationDeleted, map[string]interface{}{
		"user_id": userID,
		"key":     key,
	})

	return nil
}

func (s *annotationService) CachedKeys() []string {
	return s.cache.Keys()
}

func (s *annotationService) CachedCount() int {
	return s.cache.Count()
}

func (s *annotationService) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *annotationService) HasEverBulkLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.everBulkLoaded
}

func (s *annotationService) Close() {
	s.cache.Flush()
}

func toRecordDTO(record *entity.Annotation) dto.AnnotationRecord {
	return dto.AnnotationRecord{
		VectorImage: record.VectorImage,
		Timestamp:   record.Timestamp.UTC().Format(time.RFC3339),
		Dimensions: dto.Dimensions{
			Width:  record.Width,
			Height: record.Height,
		},
		DocumentID: record.DocumentID,
		QuestionID: record.QuestionID,
		PartID:     record.PartID,
		SectionID:  record.SectionID,
	}
}
