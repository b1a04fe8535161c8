// Package app wires configuration into a running Service. The HTTP server
// and memberctl share it so both talk to the same stores the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/memberdesk/internal/audit"
	"github.com/JonMunkholm/memberdesk/internal/config"
	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/metrics"
	"github.com/JonMunkholm/memberdesk/internal/spreadsheet"
	"github.com/JonMunkholm/memberdesk/internal/store/mongostore"
	"github.com/JonMunkholm/memberdesk/internal/uploads"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config  *config.Config
	Members *mongostore.Store
	Photos  *uploads.Store
	Metrics *metrics.Recorder
	Service *core.Service

	connector *mongostore.Connector
	auditPool *pgxpool.Pool
}

// Open connects to MongoDB, ensures the member indexes, picks the audit
// sink and builds the service. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{
		Config: cfg,
		connector: mongostore.NewConnector(mongostore.ConnectorConfig{
			URI:                    cfg.Database.URI,
			ServerSelectionTimeout: cfg.Database.ServerSelectionTimeout,
			SocketTimeout:          cfg.Database.SocketTimeout,
		}),
		Metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			a.Close(context.WithoutCancel(ctx))
		}
	}()

	a.Members, err = mongostore.Open(ctx, a.connector, cfg.Database.Name)
	if err != nil {
		return nil, err
	}
	if err := a.Members.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	logger.Info("connected to mongodb", "database", cfg.Database.Name)

	sink, err := a.openAudit(ctx, logger)
	if err != nil {
		return nil, err
	}

	a.Photos, err = uploads.New(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("uploads: %w", err)
	}

	a.Service = core.NewService(core.Options{
		Store:                a.Members,
		Audit:                sink,
		Photos:               a.Photos,
		Decoder:              spreadsheet.Decoder{},
		Observer:             a.Metrics,
		MaxImportRows:        cfg.Import.MaxRows,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWaitTime:       cfg.Import.MaxWaitTime,
	})
	return a, nil
}

func (a *App) openAudit(ctx context.Context, logger *slog.Logger) (core.AuditSink, error) {
	if a.Config.Audit.URL == "" {
		logger.Info("audit trail goes to the log")
		return audit.NewLogSink(logger), nil
	}

	pool, err := audit.Connect(ctx, a.Config.Audit.URL, int32(a.Config.Audit.MaxConns))
	if err != nil {
		return nil, err
	}
	a.auditPool = pool

	sink := audit.NewPGSink(pool)
	if err := sink.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	logger.Info("audit trail goes to postgres")
	return sink, nil
}

// Close releases the database connections.
func (a *App) Close(ctx context.Context) error {
	if a.auditPool != nil {
		a.auditPool.Close()
	}
	if err := a.connector.Close(ctx); err != nil {
		return fmt.Errorf("close mongodb: %w", err)
	}
	return nil
}
