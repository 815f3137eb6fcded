// Package exchange импорт и выгрузка хранилища в табличные файлы (по файлу на тип сущности).
package exchange

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/repo"
	"BiomassLedger/internal/tabular"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnknownOwner в файле встретился владелец, которого нет среди учётных записей.
var ErrUnknownOwner = errors.New("unknown owner")

// Stats количество обработанных строк по типам.
type Stats struct {
	Identities int
	Customers  int
	Materials  int
	Records    int
	Artifacts  int
}

// Exchange импорт/выгрузка. Владелец в файлах: e-mail; пустое значение или адрес
// администратора означает глобальный раздел.
type Exchange struct {
	db         *gorm.DB
	logger     *zap.SugaredLogger
	adminEmail string
}

func New(db *gorm.DB, logger *zap.SugaredLogger, adminEmail string) *Exchange {
	return &Exchange{db: db, logger: logger, adminEmail: model.NormalizeEmail(adminEmail)}
}

// Import загружает все файлы каталога в одной транзакции: либо всё, либо ничего.
// Отсутствующий файл: пустая таблица, нечитаемый файл: ошибка.
func (e *Exchange) Import(ctx context.Context, dir string) (Stats, error) {
	tables := make(map[string][]tabular.Row, 4)
	for name, schema := range map[string]tabular.Schema{
		IdentitiesFile: identitySchema,
		CustomersFile:  customerSchema,
		MaterialsFile:  materialSchema,
		LedgerFile:     ledgerSchema,
	} {
		rows, err := tabular.ReadFile(filepath.Join(dir, name), schema)
		if err != nil {
			return Stats{}, err
		}
		tables[name] = rows
	}

	var stats Stats
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		imp := &importer{
			ctx:        ctx,
			dir:        dir,
			logger:     e.logger,
			adminEmail: e.adminEmail,
			ids:        repo.NewIdentityRepository(tx),
			customers:  repo.NewCustomerRepository(tx),
			materials:  repo.NewMaterialRepository(tx),
			ledger:     repo.NewLedgerRepository(tx),
			artifacts:  repo.NewArtifactRepository(tx),
			owners:     make(map[string]int64),
		}
		steps := []struct {
			file string
			fn   func(int, tabular.Row) (bool, error)
			n    *int
		}{
			{IdentitiesFile, imp.identity, &stats.Identities},
			{CustomersFile, imp.customer, &stats.Customers},
			{MaterialsFile, imp.material, &stats.Materials},
			{LedgerFile, imp.record, &stats.Records},
		}
		for _, st := range steps {
			for i, row := range tables[st.file] {
				// строка 1: заголовок
				stored, err := st.fn(i+2, row)
				if err != nil {
					return fmt.Errorf("%s line %d: %w", st.file, i+2, err)
				}
				if stored {
					*st.n++
				}
			}
		}
		stats.Artifacts = imp.storedArtifacts
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	e.logger.Infow("import completed",
		"dir", dir,
		"identities", stats.Identities,
		"customers", stats.Customers,
		"materials", stats.Materials,
		"records", stats.Records,
		"artifacts", stats.Artifacts,
	)
	return stats, nil
}

// Export записывает все таблицы и документы журнала в каталог.
func (e *Exchange) Export(ctx context.Context, dir string) (Stats, error) {
	db := e.db.WithContext(ctx)
	var stats Stats

	identities, err := repo.NewIdentityRepository(db).ListByStatus(ctx, "")
	if err != nil {
		return stats, fmt.Errorf("list identities: %w", err)
	}
	emails := map[int64]string{model.GlobalOwner: ""}
	rows := make([]tabular.Row, 0, len(identities))
	for _, id := range identities {
		emails[id.ID] = id.Email
		rows = append(rows, tabular.Row{
			"email":          id.Email,
			"credentialHash": id.PasswordHash,
			"status":         string(id.Status),
			"role":           string(id.Role),
			"createdAt":      formatTime(id.CreatedAt),
			"approvedAt":     formatTimePtr(id.ApprovedAt),
		})
	}
	if err := tabular.WriteFile(filepath.Join(dir, IdentitiesFile), identitySchema, rows); err != nil {
		return stats, err
	}
	stats.Identities = len(rows)

	customers, err := repo.NewCustomerRepository(db).ListAllCustomers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list customers: %w", err)
	}
	rows = rows[:0]
	for _, c := range customers {
		rows = append(rows, tabular.Row{
			"ownerId": emails[c.OwnerID],
			"name":    c.Name,
			"contact": c.Contact,
		})
	}
	if err := tabular.WriteFile(filepath.Join(dir, CustomersFile), customerSchema, rows); err != nil {
		return stats, err
	}
	stats.Customers = len(rows)

	materials, err := repo.NewMaterialRepository(db).ListAllMaterials(ctx)
	if err != nil {
		return stats, fmt.Errorf("list materials: %w", err)
	}
	rows = rows[:0]
	for _, m := range materials {
		rows = append(rows, tabular.Row{
			"ownerId":        emails[m.OwnerID],
			"name":           m.Name,
			"basis":          string(m.DefaultBasis),
			"priceMassSmall": m.PriceMassSmall.String(),
			"priceMassLarge": m.PriceMassLarge.String(),
			"priceVolume":    m.PriceVolume.String(),
		})
	}
	if err := tabular.WriteFile(filepath.Join(dir, MaterialsFile), materialSchema, rows); err != nil {
		return stats, err
	}
	stats.Materials = len(rows)

	records, err := repo.NewLedgerRepository(db).ListAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("list ledger: %w", err)
	}
	artifacts := repo.NewArtifactRepository(db)
	written := make(map[string]struct{})
	rows = rows[:0]
	for _, r := range records {
		rows = append(rows, tabular.Row{
			"id":          r.ID,
			"timestamp":   formatTime(r.CreatedAt),
			"ownerId":     emails[r.OwnerID],
			"customer":    r.CustomerName,
			"material":    r.MaterialName,
			"basis":       string(r.Basis),
			"netQuantity": r.NetQuantity.StringFixed(3),
			"unit":        r.Unit,
			"total":       r.Total.StringFixed(2),
			"artifactRef": r.ArtifactRef,
		})
		if r.ArtifactRef == "" {
			continue
		}
		if _, ok := written[r.ArtifactRef]; ok {
			continue
		}
		if err := exportArtifact(ctx, artifacts, dir, r.ArtifactRef); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				e.logger.Warnw("document missing for ledger record", "id", r.ID, "ref", r.ArtifactRef)
				continue
			}
			return stats, err
		}
		written[r.ArtifactRef] = struct{}{}
	}
	if err := tabular.WriteFile(filepath.Join(dir, LedgerFile), ledgerSchema, rows); err != nil {
		return stats, err
	}
	stats.Records = len(rows)
	stats.Artifacts = len(written)

	e.logger.Infow("export completed",
		"dir", dir,
		"identities", stats.Identities,
		"customers", stats.Customers,
		"materials", stats.Materials,
		"records", stats.Records,
		"artifacts", stats.Artifacts,
	)
	return stats, nil
}

func exportArtifact(ctx context.Context, artifacts repo.ArtifactRepository, dir, ref string) error {
	a, err := artifacts.Get(ctx, ref)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ArtifactsDir, ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, a.Content, 0o644)
}

type importer struct {
	ctx        context.Context
	dir        string
	logger     *zap.SugaredLogger
	adminEmail string

	ids       repo.IdentityRepository
	customers repo.CustomerRepository
	materials repo.MaterialRepository
	ledger    repo.LedgerRepository
	artifacts repo.ArtifactRepository

	// кеш email -> id владельца
	owners          map[string]int64
	storedArtifacts int
}

func (imp *importer) identity(_ int, row tabular.Row) (bool, error) {
	email := model.NormalizeEmail(row["email"])
	if email == "" {
		return false, corrupt("email", "required")
	}

	// строка-маркер администратора из старого файла
	role := model.Role(strings.ToLower(row["role"]))
	if row["status"] == "approved_admin" || role == model.RoleAdmin {
		return false, nil
	}
	if role == "" {
		role = model.RoleSupplier
	}

	status := model.Status(strings.ToLower(row["status"]))
	switch status {
	case "":
		status = model.StatusPending
	case model.StatusPending, model.StatusApproved:
	default:
		return false, corrupt("status", fmt.Sprintf("unknown status %q", row["status"]))
	}

	created, err := parseTime(row["createdAt"])
	if err != nil {
		return false, corrupt("createdAt", err.Error())
	}
	approvedAt, err := parseTime(row["approvedAt"])
	if err != nil {
		return false, corrupt("approvedAt", err.Error())
	}

	identity := &model.Identity{
		Email:        email,
		PasswordHash: row["credentialHash"],
		Status:       status,
		Role:         role,
		CreatedAt:    created,
	}
	if status == model.StatusApproved && !approvedAt.IsZero() {
		identity.ApprovedAt = &approvedAt
	}

	stored, err := imp.ids.UpsertIdentity(imp.ctx, identity)
	if err != nil {
		return false, err
	}
	imp.owners[stored.Email] = stored.ID
	return true, nil
}

func (imp *importer) customer(_ int, row tabular.Row) (bool, error) {
	owner, err := imp.owner(row["ownerId"])
	if err != nil {
		return false, err
	}
	if row["name"] == "" {
		return false, corrupt("name", "required")
	}
	err = imp.customers.UpsertCustomer(imp.ctx, &model.Customer{
		OwnerID: owner,
		Name:    row["name"],
		Contact: row["contact"],
	})
	return err == nil, err
}

func (imp *importer) material(_ int, row tabular.Row) (bool, error) {
	owner, err := imp.owner(row["ownerId"])
	if err != nil {
		return false, err
	}
	if row["name"] == "" {
		return false, corrupt("name", "required")
	}
	basis := model.BasisMassSmall
	if row["basis"] != "" {
		if basis, err = model.ParseBasis(row["basis"]); err != nil {
			return false, corrupt("basis", err.Error())
		}
	}

	prices := make(model.PriceTable, 3)
	for col, b := range map[string]model.Basis{
		"priceMassSmall": model.BasisMassSmall,
		"priceMassLarge": model.BasisMassLarge,
		"priceVolume":    model.BasisVolume,
	} {
		p, err := parseDecimal(row[col])
		if err != nil {
			return false, corrupt(col, err.Error())
		}
		prices[b] = p
	}

	m := &model.Material{OwnerID: owner, Name: row["name"], DefaultBasis: basis}
	m.SetPrices(prices)
	err = imp.materials.UpsertMaterial(imp.ctx, m)
	return err == nil, err
}

func (imp *importer) record(_ int, row tabular.Row) (bool, error) {
	ownerEmail := model.NormalizeEmail(row["ownerId"])
	owner, err := imp.owner(ownerEmail)
	if err != nil {
		return false, err
	}
	if ownerEmail == "" {
		ownerEmail = imp.adminEmail
	}

	id := row["id"]
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > 36 {
		return false, corrupt("id", "longer than 36 characters")
	}

	at, err := parseTime(row["timestamp"])
	if err != nil {
		return false, corrupt("timestamp", err.Error())
	}
	if at.IsZero() {
		return false, corrupt("timestamp", "required")
	}
	basis, err := model.ParseBasis(row["basis"])
	if err != nil {
		return false, corrupt("basis", err.Error())
	}
	net, err := parseDecimal(row["netQuantity"])
	if err != nil {
		return false, corrupt("netQuantity", err.Error())
	}
	total, err := parseDecimal(row["total"])
	if err != nil {
		return false, corrupt("total", err.Error())
	}
	unit := row["unit"]
	if unit == "" {
		unit = basis.Unit()
	}

	rec := &model.DeliveryRecord{
		ID:           id,
		CreatedAt:    at,
		OwnerID:      owner,
		CreatorEmail: ownerEmail,
		CustomerName: row["customer"],
		MaterialName: row["material"],
		Basis:        basis,
		NetQuantity:  net.Round(3),
		Unit:         unit,
		Total:        total.Round(2),
	}
	// цена за единицу в файле не хранится
	if net.IsPositive() {
		rec.UnitPrice = total.Div(net).Round(4)
	}

	ref, err := imp.artifact(row["artifactRef"])
	if err != nil {
		return false, err
	}
	rec.ArtifactRef = ref

	// запись с тем же id уже есть: не считается
	return imp.ledger.AppendIfAbsent(imp.ctx, rec)
}

// artifact находит документ записи: artifacts/<ref> либо путь из старого файла.
// Документ, которого нет ни в каталоге, ни в хранилище, теряется с предупреждением.
func (imp *importer) artifact(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	candidates := []string{filepath.Join(imp.dir, ArtifactsDir, filepath.Base(ref))}
	if !isContentRef(ref) {
		candidates = append(candidates, filepath.Join(imp.dir, ref), filepath.Join(imp.dir, filepath.Base(ref)))
	}
	for _, path := range candidates {
		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		a := model.NewArtifact("application/pdf", content)
		created, err := imp.artifacts.CreateIfAbsent(imp.ctx, a)
		if err != nil {
			return "", err
		}
		if created {
			imp.storedArtifacts++
		}
		return a.ID, nil
	}

	if isContentRef(ref) {
		if _, err := imp.artifacts.Get(imp.ctx, ref); err == nil {
			return ref, nil
		}
	}
	imp.logger.Warnw("document not found, record imported without it", "ref", ref)
	return "", nil
}

// owner id владельца по e-mail из файла.
func (imp *importer) owner(email string) (int64, error) {
	email = model.NormalizeEmail(email)
	if email == "" || email == imp.adminEmail {
		return model.GlobalOwner, nil
	}
	if id, ok := imp.owners[email]; ok {
		return id, nil
	}
	identity, err := imp.ids.GetByEmail(imp.ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%s: %w", email, ErrUnknownOwner)
	}
	if err != nil {
		return 0, err
	}
	imp.owners[email] = identity.ID
	return identity.ID, nil
}

func corrupt(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, tabular.ErrCorrupt)
}

func isContentRef(ref string) bool {
	if len(ref) != 64 {
		return false
	}
	_, err := hex.DecodeString(ref)
	return err == nil
}

// форматы времени: RFC3339 при выгрузке, в старых файлах только дата
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative value %s", s)
	}
	return d, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
