package service

import (
	"BiomassLedger/internal/model"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Scoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := model.AdminIdentity("admin@example.com")
	s := env.approvedSupplier(t, "s@x.de")

	_, err := env.catalog.AddCustomer(ctx, admin, "Global GmbH", "g@x.de")
	require.NoError(t, err)
	_, err = env.catalog.AddCustomer(ctx, s, "Eigener Hof", "")
	require.NoError(t, err)

	// администратор видит только глобальный раздел, без слияния
	list, err := env.catalog.ListCustomers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Global GmbH", list[0].Name)
	assert.Equal(t, model.GlobalOwner, list[0].OwnerID)

	list, err = env.catalog.ListCustomers(ctx, s)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Eigener Hof", list[0].Name)

	// неодобренный поставщик не имеет каталога
	pending := &model.Identity{ID: 77, Email: "p@x.de", Status: model.StatusPending, Role: model.RoleSupplier}
	_, err = env.catalog.ListCustomers(ctx, pending)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := model.AdminIdentity("admin@example.com")

	_, err := env.catalog.AddCustomer(ctx, admin, "  ", "x")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.UpsertMaterial(ctx, admin, MaterialInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.UpsertMaterial(ctx, admin, MaterialInput{Name: "Rinde", DefaultBasis: "pro fass"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.UpsertMaterial(ctx, admin, MaterialInput{
		Name:   "Rinde",
		Prices: model.PriceTable{model.BasisVolume: decimal.NewFromInt(-1)},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// пустой базис: mass-small
	m, err := env.catalog.UpsertMaterial(ctx, admin, MaterialInput{Name: "Rinde"})
	require.NoError(t, err)
	assert.Equal(t, model.BasisMassSmall, m.DefaultBasis)
}

func TestCatalogService_UpsertAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.approvedSupplier(t, "s@x.de")

	_, err := env.catalog.UpsertMaterial(ctx, s, MaterialInput{
		Name:   "Pellets",
		Prices: model.PriceTable{model.BasisMassLarge: decimal.NewFromInt(250)},
	})
	require.NoError(t, err)
	_, err = env.catalog.UpsertMaterial(ctx, s, MaterialInput{
		Name:         "Pellets",
		DefaultBasis: model.BasisMassLarge,
		Prices:       model.PriceTable{model.BasisMassLarge: decimal.NewFromInt(260)},
	})
	require.NoError(t, err)

	list, err := env.catalog.ListMaterials(ctx, s)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.BasisMassLarge, list[0].DefaultBasis)
	assert.True(t, list[0].PriceMassLarge.Equal(decimal.NewFromInt(260)))

	require.NoError(t, env.catalog.DeleteMaterial(ctx, s, "Pellets"))
	require.NoError(t, env.catalog.DeleteMaterial(ctx, s, "Pellets"))
	_, err = env.catalog.FindMaterial(ctx, s, "Pellets")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.catalog.AddCustomer(ctx, s, "Hof", "hof@x.de")
	require.NoError(t, err)
	require.NoError(t, env.catalog.DeleteCustomer(ctx, s, "Hof"))
	_, err = env.catalog.FindCustomer(ctx, s, "Hof")
	assert.ErrorIs(t, err, ErrNotFound)
}
