package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

// createTestStore creates a fresh store under t.TempDir().
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func tournamentRecord(t *testing.T, id, name string) Record {
	t.Helper()
	data, err := json.Marshal(doc{ID: id, Name: name})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return Record{Key: Key{id}, Data: data}
}

func poolRecord(t *testing.T, id, eventID, stageID string) Record {
	t.Helper()
	data, err := json.Marshal(doc{ID: id, Name: stageID})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return Record{
		Key:    Key{id},
		Fields: map[string]string{"event_id": eventID, "stage_id": stageID},
		Data:   data,
	}
}

func decodeDoc(t *testing.T, data []byte) doc {
	t.Helper()
	var d doc
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return d
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
