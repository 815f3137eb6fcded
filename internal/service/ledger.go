package service

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService журнал накладных: добавление и чтение с учётом владельца.
type LedgerService struct {
	ledger    repo.LedgerRepository
	artifacts repo.ArtifactRepository
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewLedgerService(l repo.LedgerRepository, a repo.ArtifactRepository, logger *zap.SugaredLogger) *LedgerService {
	return &LedgerService{ledger: l, artifacts: a, logger: logger, now: time.Now}
}

// Filter выборка журнала: по владельцу либо всё (All, только администратор).
type Filter struct {
	OwnerID int64
	All     bool
}

// OwnFilter выборка собственных записей вызывающего.
func OwnFilter(caller *model.Identity) Filter {
	if caller.IsAdmin() {
		return Filter{OwnerID: model.GlobalOwner}
	}
	return Filter{OwnerID: caller.ID}
}

// Append присваивает id и время, если их нет, и сохраняет запись.
// Артефакты сохраняются вместе с записью либо не сохраняются вовсе.
func (s *LedgerService) Append(ctx context.Context, rec *model.DeliveryRecord, artifacts ...*model.Artifact) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	if err := s.ledger.Append(ctx, rec, artifacts...); err != nil {
		return "", fmt.Errorf("append ledger: %w", err)
	}
	return rec.ID, nil
}

// Query записи по фильтру, новые первыми.
func (s *LedgerService) Query(ctx context.Context, caller *model.Identity, f Filter) ([]model.DeliveryRecord, error) {
	if caller == nil {
		return nil, ErrForbidden
	}

	var (
		list []model.DeliveryRecord
		err  error
	)
	switch {
	case f.All:
		if !caller.IsAdmin() {
			return nil, ErrForbidden
		}
		list, err = s.ledger.ListAll(ctx)
	default:
		if !caller.IsAdmin() && f.OwnerID != caller.ID {
			return nil, ErrForbidden
		}
		list, err = s.ledger.ListByOwner(ctx, f.OwnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return list, nil
}

// Get запись по id. Чужая запись для поставщика выглядит как отсутствующая.
func (s *LedgerService) Get(ctx context.Context, caller *model.Identity, id string) (*model.DeliveryRecord, error) {
	if caller == nil {
		return nil, ErrForbidden
	}
	rec, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get record", err)
	}
	if !caller.IsAdmin() && rec.OwnerID != caller.ID {
		return nil, fmt.Errorf("get record: %w", ErrNotFound)
	}
	return rec, nil
}

// Artifact байты документа записи ровно в том виде, в каком они были сохранены.
func (s *LedgerService) Artifact(ctx context.Context, caller *model.Identity, id string) (*model.DeliveryRecord, *model.Artifact, error) {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.ArtifactRef == "" {
		return nil, nil, fmt.Errorf("record %s has no document: %w", id, ErrNotFound)
	}
	a, err := s.artifacts.Get(ctx, rec.ArtifactRef)
	if err != nil {
		return nil, nil, storeErr("get document", err)
	}
	if model.ContentRef(a.Content) != a.ID {
		s.logger.Errorw("document content does not match its reference", "record", id, "ref", a.ID)
		return nil, nil, errors.New("document integrity check failed")
	}
	return rec, a, nil
}
