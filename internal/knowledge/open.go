package knowledge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/database"
)

// HealthChecker is implemented by sources backed by a live connection.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Open builds the source selected by cfg.Knowledge.Source. The returned
// close func releases any connection and is never nil.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Source, func(), error) {
	switch cfg.Knowledge.Source {
	case "csv":
		return &CSVSource{
			MembershipPath: cfg.Knowledge.MembershipPath,
			RulesPath:      cfg.Knowledge.RulesPath,
			OutputsPath:    cfg.Knowledge.OutputsPath,
		}, func() {}, nil

	case "yaml":
		return &YAMLSource{Path: cfg.Knowledge.BundlePath}, func() {}, nil

	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, db.Pool, log); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		log.WithField("host", cfg.Database.Host).Info("connected to postgres")
		return NewPostgresSource(db.Pool), db.Close, nil

	case "sqlserver":
		src, err := OpenSQLServer(ctx, cfg.SQLServer)
		if err != nil {
			return nil, nil, fmt.Errorf("connect sqlserver: %w", err)
		}
		log.WithField("host", cfg.SQLServer.Host).Info("connected to sql server")
		return src, func() { _ = src.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown knowledge source %q", cfg.Knowledge.Source)
}
