package service

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/monitoring"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/repo"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApprovalService регистрация, допуск и аутентификация поставщиков.
type ApprovalService struct {
	repo         repo.IdentityRepository
	mail         mailer
	logger       *zap.SugaredLogger
	adminEmail   string
	adminSecrets []string
	serverURL    string
	now          func() time.Time
}

func NewApprovalService(r repo.IdentityRepository, n notify.Notifier, logger *zap.SugaredLogger, cfg *config.Config) *ApprovalService {
	return &ApprovalService{
		repo:         r,
		mail:         mailer{n: n, logger: logger, timeout: cfg.NotifyTimeout},
		logger:       logger,
		adminEmail:   model.NormalizeEmail(cfg.AdminEmail),
		adminSecrets: cfg.AdminSecrets,
		serverURL:    cfg.ServerURL,
		now:          time.Now,
	}
}

// ValidateRegistration проверки формы регистрации до обращения к хранилищу.
func (s *ApprovalService) ValidateRegistration(email, password, confirm string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email", "required")
	}
	if password == "" {
		return invalid("password", "required")
	}
	if password != confirm {
		return invalid("confirm", "passwords do not match")
	}
	return nil
}

// Register создаёт заявку в статусе pending и сообщает администратору.
func (s *ApprovalService) Register(ctx context.Context, email, password string) (*model.Identity, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "required")
	}
	if password == "" {
		return nil, invalid("password", "required")
	}

	// Проверяем, не занят ли адрес
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.CreateIdentity(ctx, &model.Identity{
		Email:        email,
		PasswordHash: hash,
		Status:       model.StatusPending,
		Role:         model.RoleSupplier,
	})
	if err != nil {
		// параллельная регистрация того же адреса упирается в уникальный индекс
		if again, lookupErr := s.repo.GetByEmail(ctx, email); lookupErr == nil && again != nil {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	monitoring.RegistrationsAmount.Inc()
	s.logger.Infow("identity registered", "email", email)

	body := fmt.Sprintf("Neue Registrierung: %s\nBitte im Admin-Bereich freigeben.", email)
	if s.serverURL != "" {
		body += "\n" + s.serverURL
	}
	s.mail.send(ctx, "registration", notify.Message{
		To:      s.adminEmail,
		Subject: "Neue Lieferanten-Registrierung",
		Body:    body,
	})
	return created, nil
}

// Approve идемпотентно переводит заявку в approved. Уведомление уходит только при фактическом переходе.
func (s *ApprovalService) Approve(ctx context.Context, email string) error {
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("approve", err)
	}
	if identity.Status == model.StatusApproved {
		return nil
	}
	if !model.CanTransition(identity.Status, model.StatusApproved) {
		return ErrInvalidTransition
	}

	changed, err := s.repo.MarkApproved(ctx, identity.Email, s.now())
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	if !changed {
		// другой вызов успел раньше
		return nil
	}

	monitoring.ApprovalsAmount.Inc()
	s.logger.Infow("identity approved", "email", identity.Email)

	s.mail.send(ctx, "approval", notify.Message{
		To:      identity.Email,
		Subject: "Freigeschaltet",
		Body:    "Ihr Zugang wurde freigeschaltet.",
	})
	return nil
}

// Reject удаляет заявку в статусе pending. Допущенную учётную запись удаляет только Delete.
func (s *ApprovalService) Reject(ctx context.Context, email string) error {
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("reject", err)
	}
	if identity.Status != model.StatusPending {
		return ErrInvalidTransition
	}
	if err := s.repo.DeleteCascade(ctx, identity.ID); err != nil {
		return storeErr("reject", err)
	}

	monitoring.IdentitiesDeletedAmount.Inc()
	s.logger.Infow("identity rejected", "email", identity.Email)
	return nil
}

// Delete удаляет учётную запись вместе с её каталогом и журналом. Только для администратора.
func (s *ApprovalService) Delete(ctx context.Context, caller *model.Identity, email string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("delete", err)
	}
	if !model.CanTransition(identity.Status, model.StatusDeleted) {
		return ErrInvalidTransition
	}
	if err := s.repo.DeleteCascade(ctx, identity.ID); err != nil {
		return storeErr("delete", err)
	}

	monitoring.IdentitiesDeletedAmount.Inc()
	s.logger.Infow("identity deleted", "email", identity.Email, "by", caller.Email)
	return nil
}

// Authenticate проверяет поставщика. Порядок проверок: существует, допущен, пароль.
func (s *ApprovalService) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			monitoring.AuthFailuresAmount.WithLabelValues("not_found").Inc()
		}
		return nil, storeErr("authenticate", err)
	}
	if !identity.IsApproved() {
		monitoring.AuthFailuresAmount.WithLabelValues("not_approved").Inc()
		return nil, ErrNotApproved
	}

	ok, legacy := checkPassword(identity.PasswordHash, password)
	if !ok {
		monitoring.AuthFailuresAmount.WithLabelValues("bad_credential").Inc()
		return nil, ErrBadCredential
	}

	if legacy {
		s.upgradeHash(ctx, identity, password)
	}
	return identity, nil
}

// upgradeHash заменяет старый sha256 на bcrypt; неудача не мешает входу.
func (s *ApprovalService) upgradeHash(ctx context.Context, identity *model.Identity, password string) {
	hash, err := HashPassword(password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, identity.ID, hash)
	}
	if err != nil {
		s.logger.Warnw("failed to upgrade legacy password hash", "email", identity.Email, "error", err)
		return
	}
	identity.PasswordHash = hash
	s.logger.Infow("legacy password hash upgraded", "email", identity.Email)
}

// AuthenticateAdmin сверяет секрет со списком действующих секретов за постоянное время.
// Пустой список не пускает никого.
func (s *ApprovalService) AuthenticateAdmin(secret string) (*model.Identity, error) {
	if secret == "" || len(s.adminSecrets) == 0 {
		monitoring.AuthFailuresAmount.WithLabelValues("admin").Inc()
		return nil, ErrBadCredential
	}
	matched := 0
	for _, candidate := range s.adminSecrets {
		matched |= subtle.ConstantTimeCompare([]byte(candidate), []byte(secret))
	}
	if matched != 1 {
		monitoring.AuthFailuresAmount.WithLabelValues("admin").Inc()
		return nil, ErrBadCredential
	}
	return model.AdminIdentity(s.adminEmail), nil
}

// Current актуальная учётная запись по данным токена. Удалённая или пересозданная
// запись (другой id) не проходит.
func (s *ApprovalService) Current(ctx context.Context, id int64, email string, role model.Role) (*model.Identity, error) {
	if role == model.RoleAdmin {
		if model.NormalizeEmail(email) != s.adminEmail {
			return nil, ErrBadCredential
		}
		return model.AdminIdentity(s.adminEmail), nil
	}
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("current identity", err)
	}
	if identity.ID != id {
		return nil, fmt.Errorf("current identity: %w", ErrNotFound)
	}
	if !identity.IsApproved() {
		return nil, ErrNotApproved
	}
	return identity, nil
}

// ListIdentities список учётных записей по статусу (пустой статус: все). Только для администратора.
func (s *ApprovalService) ListIdentities(ctx context.Context, caller *model.Identity, status model.Status) ([]model.Identity, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	list, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return list, nil
}

func (s *ApprovalService) ListPending(ctx context.Context, caller *model.Identity) ([]model.Identity, error) {
	return s.ListIdentities(ctx, caller, model.StatusPending)
}

func (s *ApprovalService) ListApproved(ctx context.Context, caller *model.Identity) ([]model.Identity, error) {
	return s.ListIdentities(ctx, caller, model.StatusApproved)
}
