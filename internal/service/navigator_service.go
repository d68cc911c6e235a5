package service

import (
	"context"
	"sync"
	"time"

	"canvas-annotations-be/internal/pkg/logger"
	"canvas-annotations-be/pkg/canvas"
	"canvas-annotations-be/pkg/outline"
)

// Materializer builds the canvases for one section after a navigation
// transition settles.
type Materializer interface {
	MaterializeSection(ctx context.Context, index int)
}

// SectionNavigator tracks which section of a loaded document is active.
// Out-of-range requests are silently ignored. The navigator lives as long
// as its document; loading a new document replaces it rather than resetting
// it.
type SectionNavigator struct {
	mu           sync.Mutex
	current      int
	count        int
	settle       time.Duration
	materializer Materializer
}

func NewSectionNavigator(sectionCount int, settle time.Duration, m Materializer) *SectionNavigator {
	return &SectionNavigator{
		count:        sectionCount,
		settle:       settle,
		materializer: m,
	}
}

func (n *SectionNavigator) CurrentIndex() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *SectionNavigator) SectionCount() int {
	return n.count
}

// GoTo activates section i. Materialization runs after the settle delay so
// layout transitions finish before canvases are populated.
func (n *SectionNavigator) GoTo(i int) {
	if i < 0 || i >= n.count {
		return
	}

	n.mu.Lock()
	n.current = i
	n.mu.Unlock()

	if n.materializer == nil {
		return
	}
	time.AfterFunc(n.settle, func() {
		n.materializer.MaterializeSection(context.Background(), i)
	})
}

func (n *SectionNavigator) Previous() {
	n.GoTo(n.CurrentIndex() - 1)
}

func (n *SectionNavigator) Next() {
	n.GoTo(n.CurrentIndex() + 1)
}

// SurfaceProvider hands out the presentation layer's canvas surfaces. The
// provider may return nil for a canvas that is not on screen.
type SurfaceProvider interface {
	SurfaceFor(sectionIndex int, questionID, partID string) canvas.Surface
}

const (
	scratchWidth  = 1024
	scratchHeight = 768
)

// scratchSurfaces backs server-side materialization. The loads run to warm
// the session cache; the decoded pixels are discarded with the surface.
type scratchSurfaces struct{}

func (scratchSurfaces) SurfaceFor(int, string, string) canvas.Surface {
	return canvas.NewMemorySurface(scratchWidth, scratchHeight)
}

// SectionLoader materializes one section's canvases by loading every
// question/part annotation of that section through the annotation service.
type SectionLoader struct {
	annotations IAnnotationService
	outline     *outline.Outline
	surfaces    SurfaceProvider
	logger      logger.ILogger
}

func NewSectionLoader(
	annotations IAnnotationService,
	doc *outline.Outline,
	surfaces SurfaceProvider,
	log logger.ILogger,
) *SectionLoader {
	return &SectionLoader{
		annotations: annotations,
		outline:     doc,
		surfaces:    surfaces,
		logger:      log,
	}
}

func (l *SectionLoader) MaterializeSection(ctx context.Context, index int) {
	questions := l.outline.QuestionsForSection(index)
	if questions == nil {
		return
	}

	var sectionID *string
	if l.outline.Sectioned() {
		id := l.outline.Sections[index].ID
		sectionID = &id
	}

	loaded := 0
	for _, qp := range questions {
		surface := l.surfaces.SurfaceFor(index, qp.QuestionID, qp.PartID)
		if surface == nil {
			continue
		}
		if l.annotations.Load(ctx, surface, qp.QuestionID, qp.PartID, sectionID, l.outline.DocumentPath) {
			loaded++
		}
	}

	l.logger.Debug("SectionLoader", "section materialized", map[string]interface{}{
		"section": index,
		"loaded":  loaded,
	})
}
