package repo

import (
	"BiomassLedger/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIdentityRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewIdentityRepository(db)
	ctx := context.Background()

	// успешное создание, email нормализуется
	u, err := r.CreateIdentity(ctx, &model.Identity{Email: "John@Example.com", PasswordHash: "hash", Status: model.StatusPending, Role: model.RoleSupplier})
	assert.NoError(t, err)
	assert.NotZero(t, u.ID)

	// поиск без учёта регистра: найдено
	got, err := r.GetByEmail(ctx, "JOHN@example.com")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.StatusPending, got.Status)

	// уникальный email: вторая вставка должна дать ошибку
	_, err = r.CreateIdentity(ctx, &model.Identity{Email: "john@example.com", PasswordHash: "x"})
	assert.Error(t, err)

	// поиск несуществующего: ожидаем gorm.ErrRecordNotFound
	got, err = r.GetByEmail(ctx, "doesnotexist@example.com")
	assert.Nil(t, got)
	assert.Error(t, err)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestIdentityRepository_MarkApproved_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	r := NewIdentityRepository(db)
	ctx := context.Background()

	_, err := r.CreateIdentity(ctx, &model.Identity{Email: "s@x.de", PasswordHash: "h", Status: model.StatusPending, Role: model.RoleSupplier})
	require.NoError(t, err)

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	changed, err := r.MarkApproved(ctx, "s@x.de", first)
	assert.NoError(t, err)
	assert.True(t, changed)

	// второй вызов ничего не меняет и не двигает ApprovedAt
	changed, err = r.MarkApproved(ctx, "s@x.de", time.Now())
	assert.NoError(t, err)
	assert.False(t, changed)

	got, err := r.GetByEmail(ctx, "s@x.de")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedAt)
	assert.WithinDuration(t, first, *got.ApprovedAt, time.Second)

	// отсутствующая запись
	changed, err = r.MarkApproved(ctx, "nobody@x.de", time.Now())
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestIdentityRepository_ListByStatus(t *testing.T) {
	db := newTestDB(t)
	r := NewIdentityRepository(db)
	ctx := context.Background()

	for _, e := range []string{"b@x.de", "a@x.de", "c@x.de"} {
		_, err := r.CreateIdentity(ctx, &model.Identity{Email: e, PasswordHash: "h", Status: model.StatusPending, Role: model.RoleSupplier})
		require.NoError(t, err)
	}
	_, err := r.MarkApproved(ctx, "c@x.de", time.Now())
	require.NoError(t, err)

	pending, err := r.ListByStatus(ctx, model.StatusPending)
	assert.NoError(t, err)
	if assert.Len(t, pending, 2) {
		assert.Equal(t, "a@x.de", pending[0].Email)
		assert.Equal(t, "b@x.de", pending[1].Email)
	}

	all, err := r.ListByStatus(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestIdentityRepository_UpdatePasswordHash(t *testing.T) {
	db := newTestDB(t)
	r := NewIdentityRepository(db)
	ctx := context.Background()

	u, err := r.CreateIdentity(ctx, &model.Identity{Email: "p@x.de", PasswordHash: "old", Status: model.StatusApproved, Role: model.RoleSupplier})
	require.NoError(t, err)

	assert.NoError(t, r.UpdatePasswordHash(ctx, u.ID, "new"))
	got, err := r.GetByEmail(ctx, "p@x.de")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	assert.ErrorIs(t, r.UpdatePasswordHash(ctx, 9999, "x"), gorm.ErrRecordNotFound)
}

func TestIdentityRepository_UpsertIdentity(t *testing.T) {
	db := newTestDB(t)
	r := NewIdentityRepository(db)
	ctx := context.Background()

	created, err := r.UpsertIdentity(ctx, &model.Identity{Email: "u@x.de", PasswordHash: "h1", Status: model.StatusPending, Role: model.RoleSupplier})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := r.UpsertIdentity(ctx, &model.Identity{Email: "U@x.de", PasswordHash: "h2", Status: model.StatusApproved, Role: model.RoleSupplier})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "h2", updated.PasswordHash)
	assert.Equal(t, model.StatusApproved, updated.Status)
}

func TestIdentityRepository_DeleteCascade(t *testing.T) {
	db := newTestDB(t)
	ids := NewIdentityRepository(db)
	customers := NewCustomerRepository(db)
	materials := NewMaterialRepository(db)
	ledger := NewLedgerRepository(db)
	artifacts := NewArtifactRepository(db)
	ctx := context.Background()

	a, err := ids.CreateIdentity(ctx, &model.Identity{Email: "a@x.de", PasswordHash: "h", Status: model.StatusApproved, Role: model.RoleSupplier})
	require.NoError(t, err)
	b, err := ids.CreateIdentity(ctx, &model.Identity{Email: "b@x.de", PasswordHash: "h", Status: model.StatusApproved, Role: model.RoleSupplier})
	require.NoError(t, err)

	for _, owner := range []int64{a.ID, b.ID} {
		require.NoError(t, customers.UpsertCustomer(ctx, &model.Customer{OwnerID: owner, Name: "Hof", Contact: "hof@x.de"}))
		require.NoError(t, materials.UpsertMaterial(ctx, &model.Material{OwnerID: owner, Name: "Hackschnitzel", DefaultBasis: model.BasisVolume, PriceVolume: decimal.NewFromInt(30)}))
	}

	// общая подпись у обоих, уникальный документ у каждого
	shared := model.NewArtifact("image/png", []byte("shared-signature"))
	docA := model.NewArtifact("application/pdf", []byte("doc-a"))
	docB := model.NewArtifact("application/pdf", []byte("doc-b"))
	for _, art := range []*model.Artifact{shared, docA, docB} {
		_, err := artifacts.CreateIfAbsent(ctx, art)
		require.NoError(t, err)
	}
	require.NoError(t, ledger.Append(ctx, mkRecord(a.ID, time.Now(), docA.ID, shared.ID)))
	require.NoError(t, ledger.Append(ctx, mkRecord(b.ID, time.Now(), docB.ID, shared.ID)))

	require.NoError(t, ids.DeleteCascade(ctx, a.ID))

	_, err = ids.GetByEmail(ctx, "a@x.de")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cs, err := customers.ListCustomers(ctx, a.ID)
	assert.NoError(t, err)
	assert.Empty(t, cs)
	ms, err := materials.ListMaterials(ctx, a.ID)
	assert.NoError(t, err)
	assert.Empty(t, ms)
	recs, err := ledger.ListByOwner(ctx, a.ID)
	assert.NoError(t, err)
	assert.Empty(t, recs)

	// документ удалённого владельца собран, общая подпись осталась
	_, err = artifacts.Get(ctx, docA.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = artifacts.Get(ctx, shared.ID)
	assert.NoError(t, err)
	_, err = artifacts.Get(ctx, docB.ID)
	assert.NoError(t, err)

	// данные второго владельца не тронуты
	cs, err = customers.ListCustomers(ctx, b.ID)
	assert.NoError(t, err)
	assert.Len(t, cs, 1)
	recs, err = ledger.ListByOwner(ctx, b.ID)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)

	// удаление отсутствующей записи
	assert.ErrorIs(t, ids.DeleteCascade(ctx, a.ID), gorm.ErrRecordNotFound)
}

// хелпер для создания записи журнала
func mkRecord(owner int64, at time.Time, docRef, sigRef string) *model.DeliveryRecord {
	return &model.DeliveryRecord{
		ID:                   uuid.NewString(),
		CreatedAt:            at.UTC(),
		OwnerID:              owner,
		CreatorEmail:         "creator@x.de",
		CustomerName:         "Hof",
		MaterialName:         "Hackschnitzel",
		Basis:                model.BasisVolume,
		Volume:               decimal.RequireFromString("2.5"),
		NetQuantity:          decimal.RequireFromString("2.5"),
		Unit:                 model.BasisVolume.Unit(),
		UnitPrice:            decimal.NewFromInt(30),
		Total:                decimal.NewFromInt(75),
		SignatureCustomerRef: sigRef,
		SignatureSupplierRef: sigRef,
		ArtifactRef:          docRef,
	}
}
