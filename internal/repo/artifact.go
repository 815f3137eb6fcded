package repo

import (
	"BiomassLedger/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArtifactRepository доступ к бинарным артефактам по ссылке на содержимое.
type ArtifactRepository interface {
	// CreateIfAbsent сохраняет артефакт. Если ссылка уже есть: ничего не делает.
	// Возвращает created=true если запись была создана в этой операции.
	CreateIfAbsent(ctx context.Context, a *model.Artifact) (created bool, err error)
	// Get возвращает артефакт или gorm.ErrRecordNotFound.
	Get(ctx context.Context, ref string) (*model.Artifact, error)
}

type artifactRepo struct {
	db *gorm.DB
}

// NewArtifactRepository создаёт реализацию репозитория для Artifact.
func NewArtifactRepository(db *gorm.DB) ArtifactRepository {
	return &artifactRepo{db: db}
}

// CreateIfAbsent одинаковое содержимое даёт одинаковую ссылку, поэтому конфликт безопасно игнорировать.
func (r *artifactRepo) CreateIfAbsent(ctx context.Context, a *model.Artifact) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(a)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *artifactRepo) Get(ctx context.Context, ref string) (*model.Artifact, error) {
	var a model.Artifact
	if err := r.db.WithContext(ctx).Where("id = ?", ref).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
