package sizes

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	cberrors "github.com/matzehuels/coinbubbles/pkg/errors"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "bitcoin"); err != nil || ok {
		t.Fatalf("Get(empty) = ok %v, err %v", ok, err)
	}

	if _, err := s.Increment(ctx, "bitcoin", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("Increment(unknown) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "bitcoin", 50); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, ok, err := s.Get(ctx, "bitcoin"); err != nil || !ok || v != 50 {
		t.Errorf("Get = %v, %v, %v, want 50", v, ok, err)
	}

	v, err := s.Increment(ctx, "bitcoin", 10)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if v != 60 {
		t.Errorf("Increment = %v, want 60", v)
	}

	if err := s.Put(ctx, "bitcoin", 35); err != nil {
		t.Fatalf("Put (replace): %v", err)
	}
	if err := s.Put(ctx, "ethereum", 50); err != nil {
		t.Fatalf("Put: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all["bitcoin"] != 35 || all["ethereum"] != 50 {
		t.Errorf("All = %v", all)
	}

	if err := s.Put(ctx, "bad", math.NaN()); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Put(NaN) error = %v, want ErrInvalidSize", err)
	}
	if _, err := s.Increment(ctx, "bitcoin", math.Inf(1)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Increment(Inf) error = %v, want ErrInvalidSize", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreAllIsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put(ctx, "a", 1)
	all, _ := s.All(ctx)
	all["a"] = 99
	if v, _, _ := s.Get(ctx, "a"); v != 1 {
		t.Errorf("Get = %v, want 1", v)
	}
}

func TestMemoryStoreConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put(ctx, "a", 0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Increment(ctx, "a", 1)
		}()
	}
	wg.Wait()
	if v, _, _ := s.Get(ctx, "a"); v != 50 {
		t.Errorf("Get = %v, want 50", v)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sizes.db")

	s, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "solana", 70); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, ok, _ := s.Get(ctx, "solana"); !ok || v != 70 {
		t.Errorf("Get after reopen = %v, %v, want 70", v, ok)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("COINBUBBLES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("COINBUBBLES_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, uri, MongoOptions{Collection: "sizes_test"})
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	defer s.Close()
	if _, err := s.coll.DeleteMany(ctx, map[string]any{}); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		dsn      string
		wantType string
		wantErr  bool
	}{
		{"", "*sizes.MemoryStore", false},
		{"memory:", "*sizes.MemoryStore", false},
		{"sqlite:" + filepath.Join(dir, "a.db"), "*sizes.SQLiteStore", false},
		{"sqlite:", "", true},
		{"postgres://localhost/db", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			s, err := Open(ctx, tt.dsn, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.dsn, err, tt.wantErr)
			}
			if err != nil {
				if !cberrors.Is(err, cberrors.ErrCodeInvalidConfig) {
					t.Errorf("Open(%q) code = %v, want %v", tt.dsn, cberrors.GetCode(err), cberrors.ErrCodeInvalidConfig)
				}
				return
			}
			defer s.Close()
			if got := typeName(s); got != tt.wantType {
				t.Errorf("Open(%q) = %s, want %s", tt.dsn, got, tt.wantType)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mongodb://user:pw@host:27017/db", "mongodb://***@host:27017/db"},
		{"mongodb://host:27017", "mongodb://host:27017"},
		{"memory:", "memory:"},
	}
	for _, tt := range tests {
		if got := redact(tt.in); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDatabaseFromURI(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mongodb://localhost:27017/bubbles", "bubbles"},
		{"mongodb://localhost:27017/", "coinbubbles"},
		{"mongodb://localhost:27017", "coinbubbles"},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.in); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *MemoryStore:
		return "*sizes.MemoryStore"
	case *SQLiteStore:
		return "*sizes.SQLiteStore"
	case *MongoStore:
		return "*sizes.MongoStore"
	}
	return "unknown"
}
