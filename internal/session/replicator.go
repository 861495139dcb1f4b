package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

var (
	// ErrNoSession is returned by Load when durable storage lacks either key.
	ErrNoSession = errors.New("no stored session")

	// ErrCorruptIdentity is returned by Load when the stored identity cannot be used.
	ErrCorruptIdentity = errors.New("stored identity is corrupt")
)

// Replicator is the single writer to the Store, the durable Storage and the
// CookieJar while one request is handled. mu orders writes within that request.
type Replicator struct {
	mu      sync.Mutex
	store   *Store
	storage Storage
	cookies CookieJar
}

func NewReplicator(store *Store, storage Storage, cookies CookieJar) *Replicator {
	return &Replicator{store: store, storage: storage, cookies: cookies}
}

// Store returns the in-memory replica.
func (r *Replicator) Store() *Store {
	return r.store
}

// Sync makes all three replicas hold (identity, credential). A nil identity
// or empty credential clears them instead.
//
// Setting writes durable storage, then cookies, then the store. If durable
// storage rejects the write, every replica is cleared and a KindStorage error
// returned, so a failed login never leaves a half-written session behind.
//
// Clearing is best effort: every step runs even if an earlier one failed, and
// the errors are joined. Clearing an empty session is a no-op write.
func (r *Replicator) Sync(ctx context.Context, identity *entities.Identity, credential entities.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if identity == nil || credential.IsZero() {
		return r.clear(ctx)
	}
	return r.set(ctx, identity, credential)
}

func (r *Replicator) set(ctx context.Context, identity *entities.Identity, credential entities.Credential) error {
	encoded, err := json.Marshal(identity)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "failed to encode identity")
	}

	if err := r.persist(ctx, string(encoded), credential); err != nil {
		clearErr := r.clear(ctx)
		return apperrors.Wrap(apperrors.KindStorage, errors.Join(err, clearErr), "failed to persist session")
	}

	r.cookies.SetGateCookies(credential, identity.Role)
	r.store.set(identity, credential)
	return nil
}

// persist skips keys whose stored value already matches, so hydrating an
// unchanged session does not dirty the durable store.
func (r *Replicator) persist(ctx context.Context, identity string, credential entities.Credential) error {
	if v, ok := r.storage.Get(ctx, KeyCredential); !ok || v != string(credential) {
		if err := r.storage.Put(ctx, KeyCredential, string(credential)); err != nil {
			return fmt.Errorf("put %s: %w", KeyCredential, err)
		}
	}
	if v, ok := r.storage.Get(ctx, KeyIdentity); !ok || v != identity {
		if err := r.storage.Put(ctx, KeyIdentity, identity); err != nil {
			return fmt.Errorf("put %s: %w", KeyIdentity, err)
		}
	}
	return nil
}

func (r *Replicator) clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyCredential, KeyIdentity} {
		if _, ok := r.storage.Get(ctx, key); !ok {
			continue
		}
		if err := r.storage.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	r.cookies.ExpireGateCookies()
	r.store.clear()

	return apperrors.Wrap(apperrors.KindStorage, errors.Join(errs...), "failed to clear stored session")
}

// Load reads the session from durable storage without touching any replica.
//
// It returns ErrNoSession when either key is missing, and an error matching
// both ErrCorruptIdentity and apperrors.ErrStorage when the stored identity
// does not parse or carries a role outside the closed set.
func (r *Replicator) Load(ctx context.Context) (*entities.Identity, entities.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	credential, okCred := r.storage.Get(ctx, KeyCredential)
	raw, okUser := r.storage.Get(ctx, KeyIdentity)
	if !okCred || !okUser || credential == "" || raw == "" {
		return nil, "", ErrNoSession
	}

	var identity entities.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindStorage, fmt.Errorf("%w: %w", ErrCorruptIdentity, err), "stored session unreadable")
	}
	if !identity.Role.Valid() {
		return nil, "", apperrors.Wrap(apperrors.KindStorage, fmt.Errorf("%w: unknown role %q", ErrCorruptIdentity, identity.Role), "stored session unreadable")
	}

	return &identity, entities.Credential(credential), nil
}

// Renew rotates the durable session id when the storage supports it.
func (r *Replicator) Renew(ctx context.Context) error {
	if rn, ok := r.storage.(Renewer); ok {
		return rn.Renew(ctx)
	}
	return nil
}
