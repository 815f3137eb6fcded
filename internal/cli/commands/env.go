package commands

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/exchange"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/repo"
	"BiomassLedger/internal/service"
	"fmt"

	"go.uber.org/zap"
)

// Logger логгер команд; main подменяет его на настоящий.
var Logger = zap.NewNop().Sugar()

// env открытое хранилище и сервисы поверх него.
type env struct {
	approval *service.ApprovalService
	exchange *exchange.Exchange
	// admin от имени локального оператора: у него есть прямой доступ к хранилищу
	admin *model.Identity
}

// openEnv открывает хранилище по cfg.DatabaseDSN; close закрывает соединение.
func openEnv(cfg *config.Config) (*env, func(), error) {
	db, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	return &env{
		approval: service.NewApprovalService(repo.NewIdentityRepository(db), notify.New(cfg, Logger), Logger, cfg),
		exchange: exchange.New(db, Logger, cfg.AdminEmail),
		admin:    model.AdminIdentity(cfg.AdminEmail),
	}, closeFn, nil
}
