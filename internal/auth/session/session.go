package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrMissingCredentials = errors.New("missing_credentials")

// TokenIssuer exchanges operator credentials for a token pair.
type TokenIssuer interface {
	ObtainToken(ctx context.Context, username, password string) (access, refresh string, err error)
}

// Login obtains a credential from issuer and persists it in store.
func Login(ctx context.Context, issuer TokenIssuer, store Source, username, password string) (Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Credential{}, ErrMissingCredentials
	}
	access, refresh, err := issuer.ObtainToken(ctx, username, password)
	if err != nil {
		return Credential{}, err
	}
	cred := Credential{Access: access, Refresh: refresh, ObtainedAt: time.Now().UTC()}
	if err := store.Save(ctx, cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Logout forgets the stored credential.
func Logout(ctx context.Context, store *Store) error {
	return store.Clear(ctx)
}
