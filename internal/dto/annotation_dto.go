package dto

// Wire shapes for the annotation API and the export/import file format.
// The export shape is fixed: older clients exported the same document from
// the original frontend, and imports must keep accepting it.

type Dimensions struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

type AnnotationRecord struct {
	VectorImage string     `json:"vectorImage"`
	Timestamp   string     `json:"timestamp"`
	Dimensions  Dimensions `json:"dimensions"`
	DocumentID  string     `json:"documentId"`
	QuestionID  string     `json:"questionId"`
	PartID      string     `json:"partId"`
	SectionID   *string    `json:"sectionId"`
}

type ExportDocument struct {
	UserID    string                      `json:"userId"`
	Timestamp string                      `json:"timestamp"`
	Version   string                      `json:"version"`
	Source    string                      `json:"source"`
	Canvases  map[string]AnnotationRecord `json:"canvases"`
}

// ImportDocument mirrors ExportDocument on the way in. Canvases stays nil
// when the key is absent from the payload, which is how a malformed import
// is told apart from an empty one.
type ImportDocument struct {
	UserID    string                      `json:"userId"`
	Timestamp string                      `json:"timestamp"`
	Version   string                      `json:"version"`
	Source    string                      `json:"source"`
	Canvases  map[string]AnnotationRecord `json:"canvases"`
}

type SaveAnnotationRequest struct {
	ImagePNG     string  `json:"imagePng" validate:"required"`
	Width        int     `json:"width" validate:"gt=0"`
	Height       int     `json:"height" validate:"gt=0"`
	QuestionID   string  `json:"questionId" validate:"required"`
	PartID       string  `json:"partId" validate:"required"`
	SectionID    *string `json:"sectionId"`
	DocumentPath string  `json:"documentPath"`
}

type SaveAnnotationResponse struct {
	VectorImage string `json:"vectorImage"`
}

type LoadAnnotationRequest struct {
	Width        int     `json:"width" validate:"gt=0"`
	Height       int     `json:"height" validate:"gt=0"`
	QuestionID   string  `json:"questionId" validate:"required"`
	PartID       string  `json:"partId" validate:"required"`
	SectionID    *string `json:"sectionId"`
	DocumentPath string  `json:"documentPath"`
}

type LoadAnnotationResponse struct {
	Found    bool   `json:"found"`
	ImagePNG string `json:"imagePng,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type BulkLoadRequest struct {
	DocumentPath string `json:"documentPath"`
}

type DeleteAnnotationRequest struct {
	QuestionID   string  `json:"questionId" validate:"required"`
	PartID       string  `json:"partId" validate:"required"`
	SectionID    *string `json:"sectionId"`
	DocumentPath string  `json:"documentPath"`
}

type ImportAnnotationsResponse struct {
	Imported int `json:"imported"`
}

type QuestionPartDTO struct {
	QuestionID string `json:"questionId" validate:"required"`
	PartID     string `json:"partId" validate:"required"`
}

type OutlineSectionDTO struct {
	ID        string            `json:"id"`
	Questions []QuestionPartDTO `json:"questions"`
}

// RegisterOutlineRequest declares the sections of the document the session
// is working on, enabling section navigation.
type RegisterOutlineRequest struct {
	DocumentPath string              `json:"documentPath"`
	Sections     []OutlineSectionDTO `json:"sections" validate:"required,min=1,dive"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,oneof=goto next previous"`
	Index  int    `json:"index"`
}

type NavigatorStateResponse struct {
	CurrentIndex int `json:"currentIndex"`
	SectionCount int `json:"sectionCount"`
}

type AnnotationStatusResponse struct {
	CachedCount    int      `json:"cachedCount"`
	CachedKeys     []string `json:"cachedKeys"`
	Loading        bool     `json:"loading"`
	EverBulkLoaded bool     `json:"everBulkLoaded"`
}
