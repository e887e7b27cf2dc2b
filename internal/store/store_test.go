package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid", Key{"acme", "petstore-v2"}, false},
		{"underscore", Key{"my_project", "doc_1"}, false},
		{"empty project", Key{"", "doc"}, true},
		{"empty document", Key{"acme", ""}, true},
		{"traversal", Key{"..", "doc"}, true},
		{"slash", Key{"acme", "a/b"}, true},
		{"dot", Key{"acme", "a.b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidKey)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := Key{"acme", "petstore"}

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"v":1}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.JSONEq(t, `{"v":1}`, string(got))

	require.NoError(t, s.Put(ctx, key, []byte(`{"v":2}`)))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.JSONEq(t, `{"v":2}`, string(got))

	_, err = s.Get(ctx, Key{"acme", "other"})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Put(ctx, Key{"../etc", "passwd"}, []byte(`{}`)), ErrInvalidKey)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, s.Put(cancelled, key, []byte(`{}`)), context.Canceled)

	require.NoError(t, s.Close())
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemoryCopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := Key{"acme", "doc"}

	data := []byte(`{"a":1}`)
	require.NoError(t, m.Put(ctx, key, data))
	data[2] = 'b'

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got))
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key{"acme", "doc"}
			if i%2 == 0 {
				_ = m.Put(ctx, key, []byte(`{}`))
			} else {
				_, _ = m.Get(ctx, key)
			}
		}()
	}
	wg.Wait()
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDir(dir)
	require.NoError(t, err)
	testStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "acme", "petstore.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "acme"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDirRequiresRoot(t *testing.T) {
	_, err := NewDir("")
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.StoreConfig{Driver: "dir", Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &Dir{}, s)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"})
	require.ErrorContains(t, err, "unknown store driver")
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewMetrics()
	s := Instrument(NewMemory(), "memory", m)
	key := Key{"acme", "doc"}

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Put(ctx, key, []byte(`{}`)))
	require.Error(t, s.Put(ctx, Key{}, []byte(`{}`)))

	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("memory", "get", metrics.StatusOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("memory", "put", metrics.StatusOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("memory", "put", metrics.StatusFailed)))
}
