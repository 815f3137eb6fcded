package exchange

import "BiomassLedger/internal/tabular"

// Имена файлов в каталоге обмена.
const (
	IdentitiesFile = "identities.csv"
	CustomersFile  = "customers.csv"
	MaterialsFile  = "materials.csv"
	LedgerFile     = "ledger.csv"
	ArtifactsDir   = "artifacts"
)

// Схемы колонок. Синонимы: заголовки файлов старого приложения.
var (
	identitySchema = tabular.Schema{
		{Name: "email"},
		{Name: "credentialHash", Aliases: []string{"pass_hash"}},
		{Name: "status"},
		{Name: "role"},
		{Name: "createdAt"},
		{Name: "approvedAt"},
	}

	customerSchema = tabular.Schema{
		{Name: "ownerId"},
		{Name: "name", Aliases: []string{"Kundenname"}},
		{Name: "contact", Aliases: []string{"Email"}},
	}

	materialSchema = tabular.Schema{
		{Name: "ownerId"},
		{Name: "name", Aliases: []string{"Material"}},
		{Name: "basis"},
		{Name: "priceMassSmall", Aliases: []string{"Preis_pro_kg"}},
		{Name: "priceMassLarge", Aliases: []string{"Preis_pro_t"}},
		{Name: "priceVolume", Aliases: []string{"Preis_pro_m3"}},
	}

	ledgerSchema = tabular.Schema{
		{Name: "id"},
		{Name: "timestamp", Aliases: []string{"datum"}},
		{Name: "ownerId", Aliases: []string{"lieferant_email"}},
		{Name: "customer", Aliases: []string{"kunde"}},
		{Name: "material"},
		{Name: "basis"},
		{Name: "netQuantity", Aliases: []string{"menge"}},
		{Name: "unit", Aliases: []string{"einheit"}},
		{Name: "total", Aliases: []string{"gesamtpreis_eur"}},
		{Name: "artifactRef", Aliases: []string{"pdf_path"}},
	}
)
