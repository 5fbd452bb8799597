package kv_test

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/woodyard/duskd/internal/db"
	"github.com/woodyard/duskd/internal/kv"
)

// buckets returns one bucket of each implementation, so both are held to
// the same contract.
func buckets(t *testing.T) map[string]kv.Bucket {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return map[string]kv.Bucket{
		"memory": kv.NewMemoryBucket("test"),
		"sqlite": kv.NewSQLiteBucket(database.DB, "test"),
	}
}

func TestBucket_GetAbsentKey(t *testing.T) {
	for name, bucket := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			value, err := bucket.Get("missing")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if value != nil {
				t.Errorf("Get(missing) = %v, want nil", value)
			}

			exists, err := bucket.Exists("missing")
			if err != nil {
				t.Fatalf("Exists returned error: %v", err)
			}
			if exists {
				t.Error("Exists(missing) = true, want false")
			}
		})
	}
}

func TestBucket_StoreOverwrites(t *testing.T) {
	for name, bucket := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			if err := bucket.Store("k", "first"); err != nil {
				t.Fatalf("Store returned error: %v", err)
			}
			if err := bucket.Store("k", "second"); err != nil {
				t.Fatalf("Store returned error: %v", err)
			}

			value, err := bucket.Get("k")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if value != "second" {
				t.Errorf("Get(k) = %v, want %q", value, "second")
			}
		})
	}
}

func TestBucket_DeleteAndKeys(t *testing.T) {
	for name, bucket := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"a", "b", "c"} {
				if err := bucket.Store(key, "v"); err != nil {
					t.Fatalf("Store(%s) returned error: %v", key, err)
				}
			}

			deleted, err := bucket.Delete("b")
			if err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if !deleted {
				t.Error("Delete(b) = false, want true")
			}

			deleted, err = bucket.Delete("b")
			if err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if deleted {
				t.Error("second Delete(b) = true, want false")
			}

			keys, err := bucket.Keys()
			if err != nil {
				t.Fatalf("Keys returned error: %v", err)
			}
			sort.Strings(keys)
			if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
				t.Errorf("Keys() = %v, want [a c]", keys)
			}

			if err := bucket.Clear(); err != nil {
				t.Fatalf("Clear returned error: %v", err)
			}
			keys, err = bucket.Keys()
			if err != nil {
				t.Fatalf("Keys returned error: %v", err)
			}
			if len(keys) != 0 {
				t.Errorf("Keys() after Clear = %v, want empty", keys)
			}
		})
	}
}

func TestManager_ReturnsSameBucket(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	manager := kv.NewManager(database.DB)

	first := manager.Bucket("snapshots", true)
	second := manager.Bucket("snapshots", true)
	if first != second {
		t.Error("Manager returned different instances for the same bucket name")
	}

	if !first.IsPersistent() {
		t.Error("persistent bucket reports IsPersistent() = false")
	}
	if manager.Bucket("scratch", false).IsPersistent() {
		t.Error("memory bucket reports IsPersistent() = true")
	}
}
