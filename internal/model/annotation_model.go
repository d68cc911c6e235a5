package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Annotation struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_annotations_user_key,priority:1"`
	CompositeKey string         `gorm:"type:varchar(512);not null;uniqueIndex:idx_annotations_user_key,priority:2"`
	DocumentId   string         `gorm:"type:varchar(64);not null"`
	QuestionId   string         `gorm:"type:varchar(32);not null"`
	PartId       string         `gorm:"type:varchar(32);not null"`
	SectionId    *string        `gorm:"type:varchar(32)"`
	VectorImage  string         `gorm:"type:text;not null"`
	Width        int            `gorm:"not null"`
	Height       int            `gorm:"not null"`
	Meta         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (Annotation) TableName() string {
	return "annotations"
}
