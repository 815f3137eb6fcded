package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Artifact бинарное содержимое (PDF-лист или изображение подписи),
// адресуемое по sha256 от содержимого.
type Artifact struct {
	ID string `gorm:"primaryKey;size:64"`

	ContentType string `gorm:"not null"`
	Size        int64  `gorm:"not null"`
	Content     []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ContentRef вычисляет ссылку на содержимое.
func ContentRef(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NewArtifact собирает артефакт с вычисленной ссылкой.
func NewArtifact(contentType string, content []byte) *Artifact {
	return &Artifact{
		ID:          ContentRef(content),
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	}
}
