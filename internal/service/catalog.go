package service

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/repo"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CatalogService клиенты и материалы. Поставщик работает только со своим разделом,
// администратор только с глобальным.
type CatalogService struct {
	customers repo.CustomerRepository
	materials repo.MaterialRepository
	logger    *zap.SugaredLogger
}

func NewCatalogService(c repo.CustomerRepository, m repo.MaterialRepository, logger *zap.SugaredLogger) *CatalogService {
	return &CatalogService{customers: c, materials: m, logger: logger}
}

// MaterialInput данные для создания или обновления материала.
type MaterialInput struct {
	Name         string
	DefaultBasis model.Basis
	Prices       model.PriceTable
}

// ownerOf раздел каталога, с которым работает вызывающий.
func ownerOf(caller *model.Identity) (int64, error) {
	if caller.IsAdmin() {
		return model.GlobalOwner, nil
	}
	if !caller.IsApproved() {
		return 0, ErrForbidden
	}
	return caller.ID, nil
}

func (s *CatalogService) AddCustomer(ctx context.Context, caller *model.Identity, name, contact string) (*model.Customer, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "required")
	}

	c := &model.Customer{OwnerID: owner, Name: name, Contact: strings.TrimSpace(contact)}
	if err := s.customers.UpsertCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("add customer: %w", err)
	}
	s.logger.Infow("customer saved", "owner", owner, "name", name)
	return c, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context, caller *model.Identity) ([]model.Customer, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	list, err := s.customers.ListCustomers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return list, nil
}

// DeleteCustomer идемпотентно.
func (s *CatalogService) DeleteCustomer(ctx context.Context, caller *model.Identity, name string) error {
	owner, err := ownerOf(caller)
	if err != nil {
		return err
	}
	if err := s.customers.DeleteCustomer(ctx, owner, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

// FindCustomer клиент в разделе вызывающего; ErrNotFound если нет.
func (s *CatalogService) FindCustomer(ctx context.Context, caller *model.Identity, name string) (*model.Customer, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.GetCustomer(ctx, owner, strings.TrimSpace(name))
	if err != nil {
		return nil, storeErr("customer "+name, err)
	}
	return c, nil
}

// UpsertMaterial создаёт материал или заменяет базис и цены у существующего.
func (s *CatalogService) UpsertMaterial(ctx context.Context, caller *model.Identity, in MaterialInput) (*model.Material, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "required")
	}
	basis := in.DefaultBasis
	if basis == "" {
		basis = model.BasisMassSmall
	}
	if !basis.Valid() {
		return nil, invalid("basis", fmt.Sprintf("unknown basis %q", basis))
	}
	for b, p := range in.Prices {
		if !b.Valid() {
			return nil, invalid("prices", fmt.Sprintf("unknown basis %q", b))
		}
		if p.IsNegative() {
			return nil, invalid("prices", fmt.Sprintf("price %s must not be negative", b.Label()))
		}
	}

	m := &model.Material{OwnerID: owner, Name: name, DefaultBasis: basis}
	m.SetPrices(in.Prices)
	if err := s.materials.UpsertMaterial(ctx, m); err != nil {
		return nil, fmt.Errorf("upsert material: %w", err)
	}
	s.logger.Infow("material saved", "owner", owner, "name", name, "basis", basis)
	return m, nil
}

func (s *CatalogService) ListMaterials(ctx context.Context, caller *model.Identity) ([]model.Material, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	list, err := s.materials.ListMaterials(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

// DeleteMaterial идемпотентно.
func (s *CatalogService) DeleteMaterial(ctx context.Context, caller *model.Identity, name string) error {
	owner, err := ownerOf(caller)
	if err != nil {
		return err
	}
	if err := s.materials.DeleteMaterial(ctx, owner, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// FindMaterial материал в разделе вызывающего; ErrNotFound если нет.
func (s *CatalogService) FindMaterial(ctx context.Context, caller *model.Identity, name string) (*model.Material, error) {
	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	m, err := s.materials.GetMaterial(ctx, owner, strings.TrimSpace(name))
	if err != nil {
		return nil, storeErr("material "+name, err)
	}
	return m, nil
}
