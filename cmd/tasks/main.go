package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"taskplanner/internal/server"
	db "taskplanner/repository/db"
	inmemory "taskplanner/repository/inmemory"
	"time"
)

func main() {
	log.Println("Запуск сервиса задач...")

	cfg := server.ReadConfig()

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.Printf("[WARN] Не удалось применить миграции: %v", err)
	} else {
		log.Println("[SUCCESS] Миграции применены успешно")
	}

	var userRepo server.Repository
	var taskRepo server.TaskRepository

	dbStorage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		log.Println("[WARN] Не удалось подключиться к БД, используем память:", err)
		inmem := inmemory.NewStorage()
		userRepo = inmem
		taskRepo = inmem
	} else {
		userRepo = dbStorage
		taskRepo = dbStorage
	}

	api := server.NewTaskAPI(userRepo, taskRepo, cfg)
	if api == nil {
		log.Fatal("[ERROR] Не удалось инициализировать API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Сервис запущен на %s:%d", cfg.Addr, cfg.Port)
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("[INFO] Получен сигнал %v, начинаем graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ERROR] Ошибка при graceful shutdown: %v", err)
		} else {
			log.Println("[SUCCESS] Graceful shutdown выполнен успешно")
		}

	case err := <-serverErr:
		log.Printf("[ERROR] Ошибка сервера: %v", err)
	}

	log.Println("Сервис завершен")
}
