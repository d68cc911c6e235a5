package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// UnknownDocument is hashed in place of the path when a document has no
// backing file (e.g. an unsaved scratch document).
const UnknownDocument = "unknown_document"

// DocumentIdentifier derives a stable, non-reversible identifier for a
// document path. The raw path is never persisted; only this digest is.
func DocumentIdentifier(path string) string {
	if path == "" {
		path = UnknownDocument
	}
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// CompositeKey composes the unique storage key for one annotation.
// Section-partitioned documents carry the section in the key so the same
// question/part pair can exist once per section.
func CompositeKey(documentID, questionID, partID string, sectionID *string) string {
	if sectionID != nil {
		return fmt.Sprintf("%s_section_%s_q%s_p%s", documentID, *sectionID, questionID, partID)
	}
	return fmt.Sprintf("%s_q%s_p%s", documentID, questionID, partID)
}
