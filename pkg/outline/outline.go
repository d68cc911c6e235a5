package outline

// Package outline carries the document structure handed over by the markup
// parser: which sections a document has and which question/part pairs live
// in each. Parsing itself happens upstream; this package only defines the
// shape the annotation layer consumes.

type QuestionPart struct {
	QuestionID string
	PartID     string
}

type Section struct {
	ID        string
	Questions []QuestionPart
}

// Outline is the parsed structure of one loaded document.
type Outline struct {
	DocumentPath string
	Sections     []Section
}

func (o *Outline) SectionCount() int {
	return len(o.Sections)
}

// QuestionsForSection returns the question/part pairs of section i, or nil
// when i is out of range.
func (o *Outline) QuestionsForSection(i int) []QuestionPart {
	if i < 0 || i >= len(o.Sections) {
		return nil
	}
	return o.Sections[i].Questions
}

// Sectioned reports whether the document is split into more than one
// section. Single-section documents store annotations without a section
// component in their keys.
func (o *Outline) Sectioned() bool {
	return len(o.Sections) > 1
}
