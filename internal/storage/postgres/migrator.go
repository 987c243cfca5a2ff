package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Встроенные миграции схемы заказов. Версионирование линейное:
// NNNN_name.up.sql / NNNN_name.down.sql, применяются по возрастанию.
//
//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsGlob   = "sql/migrations/*.sql"
	migrationLockKey = int64(20260217)
	lockTimeout      = 5 * time.Second
)

const migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrateUp применяет недостающие up-миграции; steps=0 — все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.withMigrationLock(ctx, func(conn *sql.Conn, migrations []migration) error {
		applied, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}

		done := 0
		for _, m := range migrations {
			if applied[m.Version] {
				continue
			}
			if err := runInTx(ctx, conn, m.UpSQL, `
				INSERT INTO schema_migrations (version, name, applied_at)
				VALUES ($1, $2, NOW())
			`, m.Version, m.Name); err != nil {
				return fmt.Errorf("up migration %d_%s: %w", m.Version, m.Name, err)
			}
			done++
			if steps > 0 && done >= steps {
				break
			}
		}
		return nil
	})
}

// MigrateDown откатывает steps последних миграций; steps<=0 — одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.withMigrationLock(ctx, func(conn *sql.Conn, migrations []migration) error {
		byVersion := make(map[int64]migration, len(migrations))
		for _, m := range migrations {
			byVersion[m.Version] = m
		}

		rows, err := conn.QueryContext(ctx, `
			SELECT version FROM schema_migrations ORDER BY version DESC LIMIT $1
		`, steps)
		if err != nil {
			return fmt.Errorf("query applied migrations: %w", err)
		}
		versions := make([]int64, 0, steps)
		for rows.Next() {
			var v int64
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return fmt.Errorf("scan migration version: %w", err)
			}
			versions = append(versions, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate applied migrations: %w", err)
		}

		for _, v := range versions {
			m, ok := byVersion[v]
			if !ok {
				return fmt.Errorf("cannot rollback unknown migration version %d", v)
			}
			if err := runInTx(ctx, conn, m.DownSQL, `
				DELETE FROM schema_migrations WHERE version = $1
			`, m.Version); err != nil {
				return fmt.Errorf("down migration %d_%s: %w", m.Version, m.Name, err)
			}
		}
		return nil
	})
}

// MigrationStatus возвращает максимальную применённую версию и их количество.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errors.New("postgres store is not initialized")
	}

	queryCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, migrationTableDDL); err != nil {
		return 0, 0, fmt.Errorf("ensure migration table: %w", err)
	}

	var version int64
	var count int
	err := s.db.QueryRowContext(queryCtx, `
		SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations
	`).Scan(&version, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}
	return version, count, nil
}

// withMigrationLock выполняет fn под advisory-lock, чтобы несколько
// инстансов сервиса не мигрировали схему одновременно.
func (s *Store) withMigrationLock(ctx context.Context, fn func(*sql.Conn, []migration) error) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store is not initialized")
	}

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	return fn(conn, migrations)
}

// runInTx исполняет тело миграции и запись в schema_migrations одной транзакцией.
func runInTx(ctx context.Context, conn *sql.Conn, body, record string, recordArgs ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, record, recordArgs...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// loadMigrationsFromFS читает пары up/down файлов и сортирует их по версии.
func loadMigrationsFromFS(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, migrationsGlob)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, file := range files {
		base := path.Base(file)
		matches := migrationFilePattern.FindStringSubmatch(base)
		if len(matches) != 4 {
			return nil, fmt.Errorf("invalid migration file name: %s", base)
		}

		version, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", base, err)
		}
		name, direction := matches[2], matches[3]

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, m.Name, name)
		}

		switch direction {
		case "up":
			if m.UpSQL != "" {
				return nil, fmt.Errorf("duplicate up migration for version %d", version)
			}
			m.UpSQL = body
		case "down":
			if m.DownSQL != "" {
				return nil, fmt.Errorf("duplicate down migration for version %d", version)
			}
			m.DownSQL = body
		}
	}

	result := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %d_%s must have both up and down files", m.Version, m.Name)
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })

	return result, nil
}
