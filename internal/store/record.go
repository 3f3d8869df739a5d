package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Key holds the values of a collection's key columns, in declaration order.
type Key []string

// Record is the storage form of one entity: its key, the values of the
// columns its indexes need, and the JSON document itself.
type Record struct {
	Key    Key
	Fields map[string]string
	Data   []byte
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ops implements the record operations shared by Store and Tx.
type ops struct {
	q     querier
	defs  map[Collection]CollectionDef
	scope map[Collection]bool // nil means every collection
}

func (o ops) def(op string, c Collection) (CollectionDef, error) {
	d, ok := o.defs[c]
	if !ok {
		return CollectionDef{}, Validation(op, c, "unknown collection")
	}
	if o.scope != nil && !o.scope[c] {
		return CollectionDef{}, Validation(op, c, "collection is outside the transaction scope")
	}
	return d, nil
}

func keyWhere(d CollectionDef, key Key) (string, []any, error) {
	if len(key) != len(d.Key) {
		return "", nil, fmt.Errorf("key has %d parts, want %d", len(key), len(d.Key))
	}
	conds := make([]string, len(d.Key))
	args := make([]any, len(d.Key))
	for i, col := range d.Key {
		if key[i] == "" {
			return "", nil, fmt.Errorf("key column %s is empty", col)
		}
		conds[i] = col + " = ?"
		args[i] = key[i]
	}
	return strings.Join(conds, " AND "), args, nil
}

func indexWhere(d CollectionDef, index string, values []string) (string, []any, Index, error) {
	idx, ok := d.index(index)
	if !ok {
		return "", nil, Index{}, fmt.Errorf("unknown index %q", index)
	}
	if len(values) == 0 || len(values) > len(idx.Columns) {
		return "", nil, Index{}, fmt.Errorf("index %s takes 1..%d values, got %d", index, len(idx.Columns), len(values))
	}
	conds := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		conds[i] = idx.Columns[i] + " = ?"
		args[i] = v
	}
	return strings.Join(conds, " AND "), args, idx, nil
}

// Get returns the JSON document stored under key.
// Returns a CodeNotFound error if no record matches.
func (o ops) Get(ctx context.Context, c Collection, key Key) ([]byte, error) {
	d, err := o.def("get", c)
	if err != nil {
		return nil, err
	}
	where, args, err := keyWhere(d, key)
	if err != nil {
		return nil, Validation("get", c, "%v", err)
	}

	var data string
	err = o.q.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE %s", c, where), args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("get", c, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c, err)
	}
	return []byte(data), nil
}

// GetAll returns every document in the collection ordered by key.
// Returns an empty slice (not nil) for an empty collection.
func (o ops) GetAll(ctx context.Context, c Collection) ([][]byte, error) {
	d, err := o.def("get all", c)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT data FROM %s ORDER BY %s", c, orderBy(d.Key))
	return o.collect(ctx, c, query)
}

// GetAllByIndex returns every document whose index columns equal values.
// Fewer values than index columns match on the leading columns. Results are
// ordered by index columns, then key.
func (o ops) GetAllByIndex(ctx context.Context, c Collection, index string, values ...string) ([][]byte, error) {
	d, err := o.def("get by index", c)
	if err != nil {
		return nil, err
	}
	where, args, idx, err := indexWhere(d, index, values)
	if err != nil {
		return nil, Validation("get by index", c, "%v", err)
	}
	query := fmt.Sprintf("SELECT data FROM %s WHERE %s ORDER BY %s, %s",
		c, where, orderBy(idx.Columns), orderBy(d.Key))
	return o.collect(ctx, c, query, args...)
}

// CountByIndex returns how many records match the index values.
func (o ops) CountByIndex(ctx context.Context, c Collection, index string, values ...string) (int, error) {
	d, err := o.def("count by index", c)
	if err != nil {
		return 0, err
	}
	where, args, _, err := indexWhere(d, index, values)
	if err != nil {
		return 0, Validation("count by index", c, "%v", err)
	}
	var n int
	if err := o.q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c, where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}

// Put inserts or replaces the record with the same key.
func (o ops) Put(ctx context.Context, c Collection, rec Record) error {
	d, err := o.def("put", c)
	if err != nil {
		return err
	}
	if _, _, err := keyWhere(d, rec.Key); err != nil {
		return Validation("put", c, "%v", err)
	}
	if len(rec.Data) == 0 {
		return Validation("put", c, "record has no data")
	}

	cols := d.columns()
	args := make([]any, 0, len(cols)+1)
	updates := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		if i := keyPos(d, col); i >= 0 {
			args = append(args, rec.Key[i])
			continue
		}
		args = append(args, rec.Fields[col])
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	args = append(args, string(rec.Data))
	updates = append(updates, "data = excluded.data")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s, data) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		c,
		strings.Join(cols, ", "),
		placeholders(len(cols)+1),
		strings.Join(d.Key, ", "),
		strings.Join(updates, ", "),
	)
	if _, err := o.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", c, err)
	}
	return nil
}

// Delete removes the record with key. Deleting a missing key is a no-op.
func (o ops) Delete(ctx context.Context, c Collection, key Key) error {
	d, err := o.def("delete", c)
	if err != nil {
		return err
	}
	where, args, err := keyWhere(d, key)
	if err != nil {
		return Validation("delete", c, "%v", err)
	}
	if _, err := o.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", c, where), args...); err != nil {
		return fmt.Errorf("delete %s: %w", c, err)
	}
	return nil
}

// DeleteByIndex removes every record whose index columns equal values and
// returns how many were removed. Inside a Tx the removal shares the
// transaction's fate with every other write.
func (o ops) DeleteByIndex(ctx context.Context, c Collection, index string, values ...string) (int64, error) {
	d, err := o.def("delete by index", c)
	if err != nil {
		return 0, err
	}
	where, args, _, err := indexWhere(d, index, values)
	if err != nil {
		return 0, Validation("delete by index", c, "%v", err)
	}
	res, err := o.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", c, where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s by %s: %w", c, index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s by %s: rows affected: %w", c, index, err)
	}
	return n, nil
}

func (o ops) collect(ctx context.Context, c Collection, query string, args ...any) ([][]byte, error) {
	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c, err)
	}
	defer rows.Close()

	docs := [][]byte{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		docs = append(docs, []byte(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c, err)
	}
	return docs, nil
}

func keyPos(d CollectionDef, col string) int {
	for i, k := range d.Key {
		if k == col {
			return i
		}
	}
	return -1
}

func orderBy(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " COLLATE BINARY ASC"
	}
	return strings.Join(parts, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
