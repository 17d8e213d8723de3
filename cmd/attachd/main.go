// Command attachd serves file attachments over HTTP. Bytes are kept in the
// database, on the local filesystem or in S3, selected per upload by save
// mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/bootstrap"
	"github.com/kbukum/attachkit/config"
	"github.com/kbukum/attachkit/database"
	"github.com/kbukum/attachkit/datacontext"
	"github.com/kbukum/attachkit/fileapi"
	"github.com/kbukum/attachkit/filehandler"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/observability"
	"github.com/kbukum/attachkit/server"
	"github.com/kbukum/attachkit/storage"
	"github.com/kbukum/attachkit/storage/local"
	"github.com/kbukum/attachkit/storage/s3"
	"github.com/kbukum/attachkit/util"
)

const serviceName = "attachd"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	if err := initObservability(ctx, app); err != nil {
		return err
	}

	db := database.NewComponent(cfg.Database, log).
		WithMigrations(attachment.Migrations, attachment.MigrationsDir).
		WithAutoMigrate(attachment.Models()...)
	stores := []*storage.Component{
		storage.NewComponent("storage-local", cfg.Storage.Local.BasePath, func(context.Context) (storage.Storage, error) {
			s, err := local.NewStorage(cfg.Storage.Local)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, log),
	}
	if cfg.Storage.S3.Enabled() {
		stores = append(stores, storage.NewComponent("storage-s3", s3Details(cfg.Storage.S3), func(ctx context.Context) (storage.Storage, error) {
			s, err := s3.NewStorage(ctx, cfg.Storage.S3)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, log))
	}

	if err := app.RegisterComponent(db); err != nil {
		return err
	}
	for _, s := range stores {
		if err := app.RegisterComponent(s); err != nil {
			return err
		}
	}

	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*Config]) error {
		factory := datacontext.NewModeFactory(db.DB().GormDB, db.ReadDB().GormDB)

		regs := []filehandler.Registration{
			{Name: filehandler.DatabaseSaveMode, New: filehandler.NewDatabaseHandler},
		}
		for _, s := range stores {
			mode := saveMode(s.Name())
			regs = append(regs, filehandler.Registration{
				Name: mode,
				New:  filehandler.NewObjectConstructor(mode, s.Storage(), nil),
			})
		}
		reg, err := filehandler.NewRegistry(a.Cfg.Files, regs...)
		if err != nil {
			return err
		}
		a.Logger.Info("File handlers registered", map[string]interface{}{
			"handlers":      reg.Names(),
			"default":       reg.DefaultName(),
			"max_file_size": util.FormatSize(a.Cfg.Files.MaxBytes()),
		})

		srv := server.New(a.Cfg.Server, a.Logger)
		srv.ApplyDefaults(a.Name, a.Components.HealthAll)
		provider := filehandler.NewProvider(reg, factory.For(datacontext.ModeWrite), a.Logger)
		fileapi.NewHandler(provider, a.Logger).RegisterRoutes(srv.GinEngine(), factory)

		return a.RegisterComponent(server.NewComponent(srv))
	})

	return app.Run(ctx)
}

// initObservability installs the OTLP tracer and meter providers when
// enabled and flushes them on shutdown.
func initObservability(ctx context.Context, app *bootstrap.App[*Config]) error {
	obs := app.Cfg.Observability
	if !obs.Enabled {
		return nil
	}
	env := app.Cfg.Environment

	tp, err := observability.InitTracer(ctx, obs.TracerConfig(app.Name, app.Version, env))
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	mp, err := observability.InitMeter(ctx, obs.MeterConfig(app.Name, app.Version, env))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("observability: %w", err)
	}
	app.Logger.Info("Telemetry export enabled", logger.Fields(
		"endpoint", obs.Endpoint,
		"sample_rate", obs.SampleRate,
		"metric_interval", obs.MetricInterval,
	))

	app.OnStop(func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	})
	return nil
}

// s3Details describes the bucket for the startup log without leaking keys.
func s3Details(cfg s3.Config) string {
	details := "bucket=" + cfg.Bucket
	if cfg.Endpoint != "" {
		details += " endpoint=" + cfg.Endpoint
	}
	if cfg.AccessKey != "" {
		details += " access_key=" + util.MaskSecret(cfg.AccessKey, 4)
	}
	return details
}

// saveMode maps a storage component name such as "storage-s3" to its save mode.
func saveMode(componentName string) string {
	const prefix = "storage-"
	if len(componentName) > len(prefix) && componentName[:len(prefix)] == prefix {
		return componentName[len(prefix):]
	}
	return componentName
}
