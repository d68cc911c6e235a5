package specification

import "gorm.io/gorm"

// OwnedBy scopes a query to one user's annotation collection. Every
// repository call goes through this, so cross-user reads are structurally
// impossible.
type OwnedBy struct {
	UserID string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByCompositeKey struct {
	Key string
}

func (s ByCompositeKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("composite_key = ?", s.Key)
}

type ByCompositeKeys struct {
	Keys []string
}

func (s ByCompositeKeys) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("composite_key IN ?", s.Keys)
}

// There is intentionally no documentId specification: the store has no
// secondary index on document_id, so per-document bulk loads scan the whole
// user collection and filter client-side.
