package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/shadatr/costsense-backend/internal/config"
	"github.com/shadatr/costsense-backend/internal/storage"
)

// initStorage opens the configured database and brings its schema current.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// requireUser reads the --user flag, which most commands need to scope reads.
func requireUser(get func(string) (string, error)) (string, error) {
	user, err := get("user")
	if err != nil {
		return "", err
	}
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
