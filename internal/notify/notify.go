// Package notify отправка уведомлений по e-mail. Отправка всегда best-effort:
// вызывающая сторона только логирует ошибку.
package notify

import (
	"BiomassLedger/internal/config"
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNotConfigured SMTP не настроен, письмо не отправлено.
var ErrNotConfigured = errors.New("e-mail delivery not configured")

// Attachment вложение письма.
type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

// Message письмо одному получателю.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Notifier контракт отправки.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New выбирает реализацию по конфигурации: SMTP, если задан хост и пользователь, иначе LogOnly.
func New(cfg *config.Config, logger *zap.SugaredLogger) Notifier {
	if cfg.SMTPConfigured() {
		return NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.NotifyTimeout,
		})
	}
	logger.Warnw("e-mail delivery not configured, notifications are only logged")
	return NewLogOnly(logger)
}

// LogOnly пишет письмо в лог и сообщает ErrNotConfigured.
type LogOnly struct {
	logger *zap.SugaredLogger
}

func NewLogOnly(logger *zap.SugaredLogger) *LogOnly {
	return &LogOnly{logger: logger}
}

func (l *LogOnly) Send(_ context.Context, msg Message) error {
	attached := ""
	if msg.Attachment != nil {
		attached = msg.Attachment.Name
	}
	l.logger.Infow("notification not sent",
		"to", msg.To,
		"subject", msg.Subject,
		"attachment", attached,
	)
	return ErrNotConfigured
}
