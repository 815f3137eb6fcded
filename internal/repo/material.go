package repo

import (
	"BiomassLedger/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialRepository каталог материалов с ценами, разделённый по владельцу.
type MaterialRepository interface {
	// UpsertMaterial одна инструкция INSERT ... ON CONFLICT (owner_id, name) DO UPDATE.
	UpsertMaterial(ctx context.Context, m *model.Material) error
	GetMaterial(ctx context.Context, ownerID int64, name string) (*model.Material, error)
	ListMaterials(ctx context.Context, ownerID int64) ([]model.Material, error)
	ListAllMaterials(ctx context.Context) ([]model.Material, error)
	DeleteMaterial(ctx context.Context, ownerID int64, name string) error
}

type materialRepo struct {
	db *gorm.DB
}

// NewMaterialRepository создаёт реализацию репозитория для Material.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepo{db: db}
}

func (r *materialRepo) UpsertMaterial(ctx context.Context, m *model.Material) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"default_basis", "price_mass_small", "price_mass_large", "price_volume", "updated_at",
		}),
	}).Create(m).Error
}

func (r *materialRepo) GetMaterial(ctx context.Context, ownerID int64, name string) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepo) ListMaterials(ctx context.Context, ownerID int64) ([]model.Material, error) {
	var list []model.Material
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *materialRepo) ListAllMaterials(ctx context.Context) ([]model.Material, error) {
	var list []model.Material
	if err := r.db.WithContext(ctx).Order("owner_id ASC, name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *materialRepo) DeleteMaterial(ctx context.Context, ownerID int64, name string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Delete(&model.Material{}).Error
}
