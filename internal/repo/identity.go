package repo

import (
	"BiomassLedger/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityRepository доступ к учётным записям поставщиков.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error)
	// GetByEmail ищет по нормализованному адресу; nil, gorm.ErrRecordNotFound если нет.
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	// ListByStatus пустой статус означает все записи. Сортировка по email.
	ListByStatus(ctx context.Context, status model.Status) ([]model.Identity, error)
	// MarkApproved переводит pending -> approved. changed=false если запись уже не pending.
	MarkApproved(ctx context.Context, email string, at time.Time) (changed bool, err error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// UpsertIdentity создаёт или перезаписывает запись с тем же email (импорт).
	UpsertIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error)
	// DeleteCascade удаляет запись вместе с каталогом, журналом и осиротевшими артефактами.
	DeleteCascade(ctx context.Context, id int64) error
}

type identityRepo struct {
	db *gorm.DB
}

// NewIdentityRepository создаёт реализацию репозитория для Identity.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepo{db: db}
}

func (r *identityRepo) CreateIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error) {
	identity.Email = model.NormalizeEmail(identity.Email)
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

func (r *identityRepo) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) ListByStatus(ctx context.Context, status model.Status) ([]model.Identity, error) {
	var list []model.Identity
	q := r.db.WithContext(ctx).Order("email ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkApproved условный UPDATE: из двух параллельных вызовов переход выполнит только один.
func (r *identityRepo) MarkApproved(ctx context.Context, email string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("email = ? AND status = ?", model.NormalizeEmail(email), model.StatusPending).
		Updates(map[string]any{
			"status":      model.StatusApproved,
			"approved_at": at.UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *identityRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tx := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepo) UpsertIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error) {
	identity.Email = model.NormalizeEmail(identity.Email)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "status", "role", "approved_at"}),
	}).Create(identity).Error
	if err != nil {
		return nil, err
	}
	// при конфликте ID в структуре не заполняется, перечитываем
	return r.GetByEmail(ctx, identity.Email)
}

func (r *identityRepo) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var records []model.DeliveryRecord
		err := tx.Select("artifact_ref", "signature_customer_ref", "signature_supplier_ref").
			Where("owner_id = ?", id).
			Find(&records).Error
		if err != nil {
			return err
		}

		for _, m := range []any{&model.DeliveryRecord{}, &model.Customer{}, &model.Material{}} {
			if err := tx.Where("owner_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&model.Identity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return deleteOrphanArtifacts(tx, artifactRefs(records))
	})
}

// artifactRefs собирает уникальные непустые ссылки из записей журнала.
func artifactRefs(records []model.DeliveryRecord) []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, rec := range records {
		for _, ref := range []string{rec.ArtifactRef, rec.SignatureCustomerRef, rec.SignatureSupplierRef} {
			if ref == "" {
				continue
			}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// deleteOrphanArtifacts удаляет из candidates те артефакты, на которые больше не ссылается ни одна запись.
// Проверяются только кандидаты: артефакт, ещё не привязанный к записи, не трогаем.
func deleteOrphanArtifacts(tx *gorm.DB, candidates []string) error {
	if len(candidates) == 0 {
		return nil
	}

	referenced := make(map[string]struct{})
	for _, col := range []string{"artifact_ref", "signature_customer_ref", "signature_supplier_ref"} {
		var refs []string
		err := tx.Model(&model.DeliveryRecord{}).
			Where(col+" IN ?", candidates).
			Distinct().
			Pluck(col, &refs).Error
		if err != nil {
			return err
		}
		for _, ref := range refs {
			referenced[ref] = struct{}{}
		}
	}

	var orphans []string
	for _, ref := range candidates {
		if _, ok := referenced[ref]; !ok {
			orphans = append(orphans, ref)
		}
	}
	if len(orphans) == 0 {
		return nil
	}
	return tx.Where("id IN ?", orphans).Delete(&model.Artifact{}).Error
}
