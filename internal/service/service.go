// Package service holds the business logic: account lifecycle, the
// transfer and party settlement engines, and the activity feed. Every
// balance mutation runs inside a single store transaction; the
// notification hook fires only after that transaction commits.
package service

import (
	"github.com/sirupsen/logrus"

	"github.com/andrei-d/partybank/internal/config"
	"github.com/andrei-d/partybank/internal/exchange"
	"github.com/andrei-d/partybank/internal/notify"
	"github.com/andrei-d/partybank/internal/repository"
)

// Service handles business logic
type Service struct {
	store    repository.Store
	fx       *exchange.Table
	notifier notify.Notifier
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service
func NewService(store repository.Store, fx *exchange.Table, notifier notify.Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, fx: fx, notifier: notifier, log: log, config: cfg}
}
