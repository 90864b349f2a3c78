// Package identity verifies client-held credentials against an external
// identity provider.
package identity

import (
	"context"
	"errors"

	"github.com/okian/candle/internal/domain/model"
)

// ErrInvalidCredential is returned when a credential does not verify.
var ErrInvalidCredential = errors.New("invalid credential")

// Provider turns a credential into a verified user.
type Provider interface {
	Verify(ctx context.Context, credential string) (model.User, error)
}

// StaticProvider maps fixed credentials to users. It backs development
// servers and the simulator.
type StaticProvider struct {
	users map[string]model.User
}

// NewStaticProvider builds a provider from credential → user id pairs.
func NewStaticProvider(tokens map[string]string) *StaticProvider {
	users := make(map[string]model.User, len(tokens))
	for token, id := range tokens {
		if token == "" || id == "" {
			continue
		}
		users[token] = model.User{ID: id, Name: id}
	}
	return &StaticProvider{users: users}
}

func (p *StaticProvider) Verify(_ context.Context, credential string) (model.User, error) {
	u, ok := p.users[credential]
	if !ok {
		return model.User{}, ErrInvalidCredential
	}
	return u, nil
}

// Chain tries providers in order and returns the first verified user. A
// transient failure from any provider wins over "invalid credential" so
// callers do not log users out during an outage.
type Chain []Provider

func (c Chain) Verify(ctx context.Context, credential string) (model.User, error) {
	var transient error
	for _, p := range c {
		u, err := p.Verify(ctx, credential)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrInvalidCredential) && transient == nil {
			transient = err
		}
	}
	if transient != nil {
		return model.User{}, transient
	}
	return model.User{}, ErrInvalidCredential
}
