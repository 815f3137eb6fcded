package service

import (
	"BiomassLedger/internal/monitoring"
	"BiomassLedger/internal/notify"
	"context"
	"time"

	"go.uber.org/zap"
)

// mailer отправка без влияния на основную операцию: ошибка только логируется и считается.
type mailer struct {
	n       notify.Notifier
	logger  *zap.SugaredLogger
	timeout time.Duration
}

func (m mailer) send(ctx context.Context, kind string, msg notify.Message) {
	if m.n == nil || msg.To == "" {
		return
	}
	// отмена запроса не должна обрывать уже начатую отправку
	ctx = context.WithoutCancel(ctx)
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := m.n.Send(ctx, msg); err != nil {
		monitoring.NotificationsFailedAmount.WithLabelValues(kind).Inc()
		m.logger.Warnw("notification failed",
			"kind", kind,
			"to", msg.To,
			"error", err,
		)
		return
	}
	monitoring.NotificationsSentAmount.WithLabelValues(kind).Inc()
}
