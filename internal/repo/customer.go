package repo

import (
	"BiomassLedger/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository каталог клиентов, разделённый по владельцу.
type CustomerRepository interface {
	// UpsertCustomer создаёт клиента или обновляет контакт у существующего с тем же именем.
	UpsertCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, ownerID int64, name string) (*model.Customer, error)
	ListCustomers(ctx context.Context, ownerID int64) ([]model.Customer, error)
	// ListAllCustomers все разделы (выгрузка).
	ListAllCustomers(ctx context.Context) ([]model.Customer, error)
	// DeleteCustomer идемпотентно.
	DeleteCustomer(ctx context.Context, ownerID int64, name string) error
}

type customerRepo struct {
	db *gorm.DB
}

// NewCustomerRepository создаёт реализацию репозитория для Customer.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) UpsertCustomer(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"contact"}),
	}).Create(c).Error
}

func (r *customerRepo) GetCustomer(ctx context.Context, ownerID int64, name string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) ListCustomers(ctx context.Context, ownerID int64) ([]model.Customer, error) {
	var list []model.Customer
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *customerRepo) ListAllCustomers(ctx context.Context) ([]model.Customer, error) {
	var list []model.Customer
	if err := r.db.WithContext(ctx).Order("owner_id ASC, name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *customerRepo) DeleteCustomer(ctx context.Context, ownerID int64, name string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Delete(&model.Customer{}).Error
}
