package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"

	"coinmod/common"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func InitDB(ctx context.Context, config *common.ConfigStr, logger *zap.Logger) (*bun.DB, error) {
	var db *bun.DB

	switch config.DB.Driver {
	case "sqlite":
		sqldb, err := sql.Open("sqlite", config.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// a single writer keeps sqlite from returning SQLITE_BUSY under concurrent handlers
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		opts := []pgdriver.Option{
			pgdriver.WithUser(config.DB.User),
			pgdriver.WithPassword(config.DB.Password),
			pgdriver.WithDatabase(config.DB.Name),
			pgdriver.WithTLSConfig(nil),
		}
		if config.DB.UseSocket {
			opts = append(opts, pgdriver.WithNetwork("unix"))
		}
		opts = append(opts, pgdriver.WithAddr(config.DB.IP))
		db = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(opts...)), pgdialect.New())

		maxOpenConns := 4 * runtime.GOMAXPROCS(0)
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}

	if config.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", config.DB.Driver, err)
	}

	// create database structure if doesn't exist
	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("database ready", zap.String("driver", config.DB.Driver))
	return db, nil
}
