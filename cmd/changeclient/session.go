package main

import (
	"cash-register-client/internal/api"
	"cash-register-client/internal/batch"
	"cash-register-client/internal/calculator"
	"cash-register-client/internal/config"
	"cash-register-client/internal/configsync"
	"cash-register-client/internal/handlers"
	"cash-register-client/internal/health"
	"cash-register-client/internal/state"
)

// newSession wires one store and its controllers to the remote service.
func newSession(cfg *config.Config) (*handlers.Session, error) {
	client, err := api.New(cfg.Remote.URL)
	if err != nil {
		return nil, err
	}

	store := state.New()
	sync := configsync.New(client,
		configsync.WithPushPolicy(cfg.Policy()),
		configsync.WithExtendedFields(cfg.Sync.ExtendedFields),
	)

	return &handlers.Session{
		Store:      store,
		Calculator: calculator.New(store, sync, client),
		Batch:      batch.New(store, client),
		Config:     sync,
		Monitor:    health.New(client, cfg.Remote.HealthInterval),
	}, nil
}
