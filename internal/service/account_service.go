package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/startline/auth-server/internal/domain"
	"github.com/startline/auth-server/internal/events"
	"github.com/startline/auth-server/internal/repository"
)

// AccountService administers principals: enable/disable and authority grants.
type AccountService struct {
	tx     repository.Transactor
	events events.Dispatcher
	logger *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(tx repository.Transactor, dispatcher events.Dispatcher, logger *zap.Logger) *AccountService {
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{tx: tx, events: dispatcher, logger: logger}
}

// IsEnabled reports the enabled flag of a principal.
func (s *AccountService) IsEnabled(ctx context.Context, username string) (bool, error) {
	var enabled bool
	err := s.tx.WithinSerializable(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		enabled, err = store.Principals().IsEnabled(ctx, username)
		return err
	})
	return enabled, err
}

// SetEnabled changes the enabled flag of a principal.
func (s *AccountService) SetEnabled(ctx context.Context, username string, enabled bool) error {
	err := s.tx.WithinSerializable(ctx, func(ctx context.Context, store repository.Store) error {
		return store.Principals().SetEnabled(ctx, username, enabled)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account status changed", zap.String("username", username), zap.Bool("enabled", enabled))
	s.publish(ctx, events.New(events.EventAccountStatusChanged, username, events.AccountStatusChangedPayload{Enabled: enabled}))
	return nil
}

// GrantAuthority adds an authority to a principal. Granting one it already holds is a no-op.
func (s *AccountService) GrantAuthority(ctx context.Context, username string, name domain.AuthorityName) (*domain.Principal, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: unknown authority %q", domain.ErrValidationFailed, name)
	}

	var (
		principal *domain.Principal
		granted   bool
	)
	err := s.tx.WithinSerializable(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		principal, err = store.Principals().FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		for _, held := range principal.Authorities {
			if held == name {
				return nil
			}
		}
		if err := store.Authorities().Create(ctx, &domain.Authority{Username: username, Authority: name}); err != nil {
			return err
		}
		principal.Authorities = append(principal.Authorities, name)
		granted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if granted {
		s.publish(ctx, events.New(events.EventAuthorityGranted, username, events.AuthorityGrantedPayload{Authority: name}))
	}
	return principal, nil
}

func (s *AccountService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(evt.Type)), zap.Error(err))
	}
}
