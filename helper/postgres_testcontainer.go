//go:build integration

package helper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// MustStartPostgresContainer starts a disposable Postgres+pgvector container
// for integration tests and returns connection configuration for it. It
// panics on failure since it is only ever used from test setup.
func MustStartPostgresContainer() (*DatabaseConfiguration, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("graphrag_test"),
		postgres.WithUsername("graphrag"),
		postgres.WithPassword("graphrag"),
	)
	if err != nil {
		panic(fmt.Sprintf("start postgres container: %v", err))
	}

	host, err := container.Host(ctx)
	if err != nil {
		panic(fmt.Sprintf("container host: %v", err))
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		panic(fmt.Sprintf("container port: %v", err))
	}

	cfg := &DatabaseConfiguration{
		Host:     host,
		Port:     port.Int(),
		User:     "graphrag",
		Password: "graphrag",
		DBName:   "graphrag_test",
		SSLMode:  "disable",
	}

	cleanup := func() {
		if err := container.Terminate(context.Background()); err != nil {
			slog.Default().Warn("failed to terminate postgres container", slog.String("error", err.Error()))
		}
	}

	return cfg, cleanup
}
