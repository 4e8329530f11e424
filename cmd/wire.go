package main

import (
	"database/sql"

	"health_dashboard/internal/config"
	"health_dashboard/internal/logger"
	"health_dashboard/internal/provider"
	"health_dashboard/internal/repository"
	"health_dashboard/internal/repository/db"
	"health_dashboard/internal/service"
)

// buildProvider selects the health data provider named by provider.kind.
func buildProvider(c *config.Config, log *logger.Logger) (provider.Provider, error) {
	switch c.Provider.Kind {
	case config.ProviderNative:
		keys, err := provider.ParsePermissionKeys(c.Provider.PermissionKeys)
		if err != nil {
			return nil, err
		}
		// No vendor SDK binding is linked into this build; every call reports SdkUnavailable.
		log.Warnw("native_provider_without_sdk", "supported_platform", c.Provider.SupportedPlatform)
		return provider.NewDelegating(nil, provider.DelegatingConfig{
			Platform:          c.Provider.Platform,
			SupportedPlatform: c.Provider.SupportedPlatform,
			PermissionKeys:    keys,
		}, log.Named("provider")), nil
	default:
		lat := c.Provider.Latency
		return provider.NewSimulated(provider.Latency{
			Initialize:  lat.Initialize,
			Permissions: lat.Permissions,
			Read:        lat.Read,
		}, nil, log.Named("provider")), nil
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(c *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := c.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// app holds everything a command needs; close releases the database.
type app struct {
	services *service.Service
	close    func()
}

func buildApp(c *config.Config, log *logger.Logger) (*app, error) {
	p, err := buildProvider(c, log)
	if err != nil {
		return nil, err
	}
	conn, err := openDB(c, log)
	if err != nil {
		return nil, err
	}

	services := service.NewService(service.Deps{
		Repos:    repository.NewRepository(conn),
		Provider: p,
		Session: service.SessionConfig{
			RequiredPlatform: c.Session.RequiredPlatform,
			Platform:         c.Provider.Platform,
			AutoRefresh:      c.Session.AutoRefresh,
			OperationTimeout: c.Session.OperationTimeout,
			Location:         c.Session.Location(),
		},
		Auth: service.AuthConfig{
			SigningKey: c.Auth.SigningKey,
			TokenTTL:   c.Auth.TokenTTL,
		},
		Log: log,
	})

	return &app{
		services: services,
		close: func() {
			if cerr := conn.Close(); cerr != nil {
				log.Errorw("failed to close sqlite", "err", cerr)
			}
		},
	}, nil
}
