package repo

import (
	"BiomassLedger/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository журнал накладных. Только вставка, обновления нет.
type LedgerRepository interface {
	// Append сохраняет запись и её артефакты в одной транзакции.
	Append(ctx context.Context, rec *model.DeliveryRecord, artifacts ...*model.Artifact) error
	// AppendIfAbsent вставка с игнорированием существующего id (импорт).
	AppendIfAbsent(ctx context.Context, rec *model.DeliveryRecord) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.DeliveryRecord, error)
	// ListByOwner и ListAll сортируют по времени создания, новые первыми.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.DeliveryRecord, error)
	ListAll(ctx context.Context) ([]model.DeliveryRecord, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepository создаёт реализацию репозитория для DeliveryRecord.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Append(ctx context.Context, rec *model.DeliveryRecord, artifacts ...*model.Artifact) error {
	if len(artifacts) == 0 {
		return r.db.WithContext(ctx).Create(rec).Error
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewArtifactRepository(tx)
		for _, a := range artifacts {
			if _, err := store.CreateIfAbsent(ctx, a); err != nil {
				return err
			}
		}
		return tx.Create(rec).Error
	})
}

func (r *ledgerRepo) AppendIfAbsent(ctx context.Context, rec *model.DeliveryRecord) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(rec)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *ledgerRepo) GetByID(ctx context.Context, id string) (*model.DeliveryRecord, error) {
	var rec model.DeliveryRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ledgerRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.DeliveryRecord, error) {
	var list []model.DeliveryRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ledgerRepo) ListAll(ctx context.Context) ([]model.DeliveryRecord, error) {
	var list []model.DeliveryRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
