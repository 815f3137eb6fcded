package model

import (
	"strings"
	"time"
)

// Status состояние заявки поставщика.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	// StatusDeleted не хранится: удалённая (отклонённая) учётная запись просто исчезает.
	StatusDeleted Status = "deleted"
)

// Role роль учётной записи.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupplier Role = "supplier"
)

// GlobalOwner владелец глобального раздела каталога и журнала (администратор).
const GlobalOwner int64 = 0

// Identity серверная модель учётной записи поставщика.
type Identity struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Status       Status `gorm:"not null;default:pending;index"`
	Role         Role   `gorm:"not null;default:supplier"`

	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ApprovedAt *time.Time
}

// IsAdmin проверяет роль администратора.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IsApproved проверяет, что учётная запись допущена к работе.
func (i *Identity) IsApproved() bool {
	return i != nil && i.Status == StatusApproved
}

// AdminIdentity синтетическая учётная запись администратора; в хранилище не попадает.
func AdminIdentity(email string) *Identity {
	return &Identity{
		ID:     GlobalOwner,
		Email:  NormalizeEmail(email),
		Status: StatusApproved,
		Role:   RoleAdmin,
	}
}

// NormalizeEmail приводит адрес к ключу хранилища (без учёта регистра).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// transitions допустимые переходы состояний заявки.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDeleted},
	StatusApproved: {StatusDeleted},
}

// CanTransition сообщает, разрешён ли переход from -> to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
