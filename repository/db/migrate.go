package db

import (
	"log"
	"taskplanner/internal/domain/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func Migration(dbStr string, migratePath string) error {
	if dbStr == "" || migratePath == "" {
		return errors.ErrBadRequest
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		log.Println("[ERROR] Не удалось инициализировать миграции:", err)
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Println("[ERROR] Не удалось применить миграции:", err)
		return err
	}

	return nil
}
