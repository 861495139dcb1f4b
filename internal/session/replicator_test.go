package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

func testIdentity(role entities.Role) *entities.Identity {
	return &entities.Identity{
		ID:        "65a1f0c2e4b0a1b2c3d4e5f6",
		Name:      "Asha Verma",
		Email:     "asha@example.edu",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
	}
}

func newTestReplicator() (*Replicator, *MemoryStorage, *MemoryCookies) {
	storage := NewMemoryStorage()
	cookies := &MemoryCookies{}
	return NewReplicator(NewStore(), storage, cookies), storage, cookies
}

// failingStorage rejects writes to one key.
type failingStorage struct {
	*MemoryStorage
	failKey string
}

func (f *failingStorage) Put(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryStorage.Put(ctx, key, value)
}

// countingStorage counts Put calls.
type countingStorage struct {
	*MemoryStorage
	mu   sync.Mutex
	puts int
}

func (c *countingStorage) Put(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.MemoryStorage.Put(ctx, key, value)
}

func TestSync_LoginReplicatesToAllStores(t *testing.T) {
	ctx := context.Background()
	repl, storage, cookies := newTestReplicator()
	identity := testIdentity(entities.RoleStudent)

	require.NoError(t, repl.Sync(ctx, identity, "cred-123"))

	stored, cred, err := repl.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Credential("cred-123"), cred)
	assert.Equal(t, identity.ID, stored.ID)
	assert.Equal(t, identity.Role, stored.Role)

	token, role := cookies.Values()
	assert.Equal(t, "cred-123", token)
	assert.Equal(t, "student", role)

	snap := repl.Store().Snapshot()
	require.NotNil(t, snap.Identity)
	assert.Equal(t, identity.Email, snap.Identity.Email)
	assert.Equal(t, entities.Credential("cred-123"), snap.Credential)

	raw, ok := storage.Get(ctx, KeyCredential)
	require.True(t, ok)
	assert.Equal(t, "cred-123", raw)
}

func TestSync_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repl, storage, cookies := newTestReplicator()
	require.NoError(t, repl.Sync(ctx, testIdentity(entities.RoleAdmin), "cred-abc"))

	for i := 0; i < 2; i++ {
		require.NoError(t, repl.Sync(ctx, nil, ""))

		assert.Equal(t, 0, storage.Len())
		assert.True(t, cookies.Expired())
		assert.Nil(t, repl.Store().Identity())
		assert.True(t, repl.Store().Credential().IsZero())
	}
}

func TestSync_EmptyCredentialClears(t *testing.T) {
	ctx := context.Background()
	repl, storage, _ := newTestReplicator()
	require.NoError(t, repl.Sync(ctx, testIdentity(entities.RoleAdmin), "cred-abc"))

	require.NoError(t, repl.Sync(ctx, testIdentity(entities.RoleAdmin), ""))

	assert.Equal(t, 0, storage.Len())
	assert.Nil(t, repl.Store().Identity())
}

func TestSync_StorageFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), failKey: KeyIdentity}
	cookies := &MemoryCookies{}
	repl := NewReplicator(NewStore(), storage, cookies)

	err := repl.Sync(ctx, testIdentity(entities.RoleStudent), "cred-xyz")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.Equal(t, 0, storage.Len(), "credential written before the failure must be removed")
	assert.True(t, cookies.Expired())
	assert.Nil(t, repl.Store().Identity())
}

func TestSync_UnchangedSessionSkipsDurableWrites(t *testing.T) {
	ctx := context.Background()
	storage := &countingStorage{MemoryStorage: NewMemoryStorage()}
	repl := NewReplicator(NewStore(), storage, &MemoryCookies{})
	identity := testIdentity(entities.RoleStudent)

	require.NoError(t, repl.Sync(ctx, identity, "cred-1"))
	require.NoError(t, repl.Sync(ctx, identity, "cred-1"))

	assert.Equal(t, 2, storage.puts)
}

func TestSync_ConcurrentLoginAndClearStayConsistent(t *testing.T) {
	ctx := context.Background()
	repl, storage, cookies := newTestReplicator()
	identity := testIdentity(entities.RoleStudent)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = repl.Sync(ctx, identity, "cred-1")
		}()
		go func() {
			defer wg.Done()
			_ = repl.Sync(ctx, nil, "")
		}()
	}
	wg.Wait()

	token, _ := cookies.Values()
	snap := repl.Store().Snapshot()
	_, hasCred := storage.Get(ctx, KeyCredential)

	if snap.Authenticated() {
		assert.Equal(t, "cred-1", token)
		assert.True(t, hasCred)
	} else {
		assert.Empty(t, token)
		assert.False(t, hasCred)
	}
}

func TestLoad_Missing(t *testing.T) {
	ctx := context.Background()
	repl, storage, _ := newTestReplicator()

	_, _, err := repl.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, storage.Put(ctx, KeyCredential, "only-token"))
	_, _, err = repl.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_CorruptIdentity(t *testing.T) {
	tests := []struct {
		name string
		user string
	}{
		{name: "not json", user: "{not-json"},
		{name: "wrong shape", user: `["a","b"]`},
		{name: "unknown role", user: `{"_id":"1","role":"superuser"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repl, storage, _ := newTestReplicator()
			require.NoError(t, storage.Put(ctx, KeyCredential, "cred"))
			require.NoError(t, storage.Put(ctx, KeyIdentity, tt.user))

			identity, cred, err := repl.Load(ctx)

			assert.Nil(t, identity)
			assert.Empty(t, cred)
			assert.ErrorIs(t, err, ErrCorruptIdentity)
			assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))
		})
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repl, _, _ := newTestReplicator()
	require.NoError(t, repl.Sync(ctx, testIdentity(entities.RoleStudent), "cred"))

	got := repl.Store().Identity()
	got.Role = entities.RoleAdmin

	assert.Equal(t, entities.RoleStudent, repl.Store().Identity().Role)
}

func TestRenew_NoopWithoutRenewer(t *testing.T) {
	repl, _, _ := newTestReplicator()
	assert.NoError(t, repl.Renew(context.Background()))
}
