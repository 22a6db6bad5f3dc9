package main

import (
	"context"
	"taskplanner/internal/server"
	inmemory "taskplanner/repository/inmemory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationReading(t *testing.T) {
	t.Setenv("ADDR", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "envsecret")
	t.Setenv("TOKEN_TTL", "60")
	t.Setenv("ALLOWED_ORIGIN", "http://localhost:3000")

	cfg := server.ReadConfig()
	assert.NotNil(t, cfg)
	assert.Equal(t, "127.0.0.1", cfg.Addr)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "envsecret", cfg.JWTSecret)
	assert.Equal(t, 60, cfg.TokenTTLMin)
	assert.Equal(t, "http://localhost:3000", cfg.AllowedOrigin)
}

func TestAPIInitialization(t *testing.T) {
	inmem := inmemory.NewStorage()

	api := server.NewTaskAPI(inmem, inmem, &server.Config{JWTSecret: "testsecret"})
	assert.NotNil(t, api)

	assert.Nil(t, server.NewTaskAPI(nil, inmem, &server.Config{}))
	assert.Nil(t, server.NewTaskAPI(inmem, nil, &server.Config{}))
}

func TestGracefulShutdown(t *testing.T) {
	inmem := inmemory.NewStorage()
	api := server.NewTaskAPI(inmem, inmem, &server.Config{JWTSecret: "testsecret"})
	assert.NotNil(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Shutdown до Start корректно завершается без ошибки.
	assert.NoError(t, api.Shutdown(ctx))
}
