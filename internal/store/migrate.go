package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// migrate applies every step whose version exceeds the on-disk user_version,
// in ascending order. Each step runs in its own transaction together with the
// user_version bump, so a crash leaves the store at the last fully applied
// step and the next open resumes from there.
func (s *Store) migrate(ctx context.Context) error {
	current, err := readVersion(ctx, s.db)
	if err != nil {
		return &Error{Code: CodeMigration, Op: "read version", Err: err}
	}

	steps := make([]Migration, len(s.migrations))
	copy(steps, s.migrations)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })

	for _, step := range steps {
		if step.Version <= current {
			s.log.Debug("schema step already applied", "version", step.Version, "name", step.Name)
			continue
		}
		if err := s.applyStep(ctx, step); err != nil {
			return err
		}
		current = step.Version
		s.log.Info("schema step applied", "version", step.Version, "name", step.Name)
		s.obs.MigrationApplied(step.Version)
	}

	s.obs.SchemaVersion(current)
	return nil
}

func (s *Store) applyStep(ctx context.Context, step Migration) error {
	op := fmt.Sprintf("migrate v%d", step.Version)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Code: CodeMigration, Op: op, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback() // No-op if committed

	for _, stmt := range step.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &Error{Code: CodeMigration, Op: op, Message: step.Name, Err: err}
		}
	}

	// PRAGMA does not accept bound parameters; Version is an int from code.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.Version)); err != nil {
		return &Error{Code: CodeMigration, Op: op, Err: fmt.Errorf("set user_version: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Code: CodeMigration, Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readVersion(ctx context.Context, q rowQuerier) (int, error) {
	var version int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}
