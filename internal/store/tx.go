package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Tx is a transaction spanning a declared set of collections. It offers the
// same record operations as Store; touching a collection outside the scope
// fails the operation and therefore the transaction.
type Tx struct {
	ops
}

// RunTransaction runs fn inside one SQLite transaction scoped to the given
// collections. If fn returns an error, or the commit fails, every write made
// through tx is rolled back and a CodeTransactionAborted error wrapping the
// cause is returned. Operations inside fn execute in the order issued.
//
// fn must only use tx: the store holds a single connection, so calling Store
// methods from inside fn blocks until the transaction ends.
func (s *Store) RunTransaction(ctx context.Context, collections []Collection, fn func(ctx context.Context, tx *Tx) error) (err error) {
	scope, label, err := s.scope(collections)
	if err != nil {
		return err
	}

	start := time.Now()
	committed := false
	defer func() {
		s.obs.TransactionFinished(label, committed, time.Since(start))
		if !committed {
			s.log.Debug("transaction aborted", "scope", label, "error", err)
		}
	}()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return aborted(label, fmt.Errorf("begin tx: %w", err))
	}
	defer sqlTx.Rollback() // No-op if committed

	tx := &Tx{ops: ops{q: sqlTx, defs: s.defs, scope: scope}}
	if err := fn(ctx, tx); err != nil {
		return aborted(label, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return aborted(label, fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func (s *Store) scope(collections []Collection) (map[Collection]bool, string, error) {
	if len(collections) == 0 {
		return nil, "", Validation("transaction", "", "no collections in scope")
	}
	scope := make(map[Collection]bool, len(collections))
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		if _, ok := s.defs[c]; !ok {
			return nil, "", Validation("transaction", c, "unknown collection")
		}
		if !scope[c] {
			scope[c] = true
			names = append(names, string(c))
		}
	}
	sort.Strings(names)
	return scope, strings.Join(names, ","), nil
}

func aborted(scope string, cause error) *Error {
	return &Error{
		Code: CodeTransactionAborted,
		Op:   "transaction [" + scope + "]",
		Err:  cause,
	}
}
