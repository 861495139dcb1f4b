package api

import (
	"context"

	"github.com/mrlokans/docsafe/internal/entities"
)

// CredentialSource supplies the bearer credential for outgoing calls and
// reacts to a 401 from any of them.
type CredentialSource interface {
	Credential(ctx context.Context) (entities.Credential, bool)
	// Unauthorized clears the session and navigates to the login page. The
	// client calls it before returning the 401 to the caller.
	Unauthorized(ctx context.Context)
}

type credentialsKey struct{}

// WithCredentials attaches src to ctx for every call made with it.
func WithCredentials(ctx context.Context, src CredentialSource) context.Context {
	return context.WithValue(ctx, credentialsKey{}, src)
}

func credentialsFrom(ctx context.Context) CredentialSource {
	src, _ := ctx.Value(credentialsKey{}).(CredentialSource)
	return src
}
