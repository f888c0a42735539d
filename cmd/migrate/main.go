// Comando migrate aplica o revierte el esquema embebido en migrations/.
//
//	go run ./cmd/migrate          # up
//	go run ./cmd/migrate -down 1  # revierte una versión
package main

import (
	"errors"
	"flag"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jhoicas/Alquiler-api/migrations"
	"github.com/jhoicas/Alquiler-api/pkg/config"
	"github.com/jhoicas/Alquiler-api/pkg/logger"
)

func main() {
	down := flag.Int("down", 0, "versiones a revertir (0 = aplicar todas las pendientes)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "migrate"})
	if !cfg.DB.Enabled() {
		log.Fatal().Msg("DATABASE_URL o DB_HOST requerido")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("leer migraciones embebidas")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgxURL(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migrate")
	}
	defer m.Close()

	if *down > 0 {
		if err := m.Steps(-*down); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Int("steps", *down).Msg("revertir migraciones")
		}
	} else if err := runMigrations(m); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("leer versión")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("esquema actualizado")
}

// runMigrations aplica lo pendiente; ErrNoChange no es error.
func runMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// pgxURL el driver pgx/v5 de migrate se registra con el esquema pgx5://.
func pgxURL(dsn string) string {
	for _, p := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, p) {
			return "pgx5://" + strings.TrimPrefix(dsn, p)
		}
	}
	return dsn
}
