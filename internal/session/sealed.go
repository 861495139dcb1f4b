package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/crypto"
)

// SealedStorage encrypts the credential before it reaches the inner storage.
// Other keys pass through unchanged.
type SealedStorage struct {
	inner  Storage
	sealer *crypto.Sealer
}

func NewSealedStorage(inner Storage, sealer *crypto.Sealer) *SealedStorage {
	return &SealedStorage{inner: inner, sealer: sealer}
}

// Get opens the sealed credential. A value that cannot be opened (key rotated,
// tampered row) reads as absent so hydration falls back to anonymous.
func (s *SealedStorage) Get(ctx context.Context, key string) (string, bool) {
	v, ok := s.inner.Get(ctx, key)
	if !ok || key != KeyCredential {
		return v, ok
	}
	plain, err := s.sealer.Open(v)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("stored credential could not be opened")
		return "", false
	}
	return plain, true
}

func (s *SealedStorage) Put(ctx context.Context, key, value string) error {
	if key != KeyCredential {
		return s.inner.Put(ctx, key, value)
	}
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, key, sealed)
}

func (s *SealedStorage) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// Renew forwards to the inner storage when it supports renewal.
func (s *SealedStorage) Renew(ctx context.Context) error {
	if r, ok := s.inner.(Renewer); ok {
		return r.Renew(ctx)
	}
	return nil
}
