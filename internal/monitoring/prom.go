// Package monitoring счётчики Prometheus для рабочего процесса накладных.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RegistrationsAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "biomass_registrations_amount",
	Help: "The total number of supplier registrations",
})

var ApprovalsAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "biomass_approvals_amount",
	Help: "The total number of pending to approved transitions",
})

var IdentitiesDeletedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "biomass_identities_deleted_amount",
	Help: "The total number of rejected or deleted identities",
})

// AuthFailuresAmount по причине: not_found, not_approved, bad_credential, admin.
var AuthFailuresAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "biomass_auth_failures_amount",
	Help: "The total number of failed authentication attempts",
}, []string{"reason"})

// DeliveriesIssuedAmount по базису.
var DeliveriesIssuedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "biomass_deliveries_issued_amount",
	Help: "The total number of delivery notes issued",
}, []string{"basis"})

// NotificationsFailedAmount по виду уведомления.
var NotificationsFailedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "biomass_notifications_failed_amount",
	Help: "The total number of notifications that could not be delivered",
}, []string{"kind"})

var NotificationsSentAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "biomass_notifications_sent_amount",
	Help: "The total number of notifications handed to the mail server",
}, []string{"kind"})
