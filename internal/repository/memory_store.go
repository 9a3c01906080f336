package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/startline/auth-server/internal/domain"
)

type memoryState struct {
	principals    map[string]domain.Principal
	authorities   []domain.Authority
	refreshTokens []domain.RefreshToken
	nextAuthority int64
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		principals:    make(map[string]domain.Principal, len(s.principals)),
		authorities:   append([]domain.Authority(nil), s.authorities...),
		refreshTokens: append([]domain.RefreshToken(nil), s.refreshTokens...),
		nextAuthority: s.nextAuthority,
	}
	for k, v := range s.principals {
		out.principals[k] = v
	}
	return out
}

// MemoryStore is an in-process Transactor used when no database is configured
// and in tests. Transactions run one at a time, which makes them serializable.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	opts  storeOptions
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		state: &memoryState{principals: make(map[string]domain.Principal)},
		opts:  buildOptions(opts),
		now:   time.Now,
	}
}

// WithinSerializable runs fn on a working copy and publishes it only when fn succeeds.
func (m *MemoryStore) WithinSerializable(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	pending := newPendingRefreshTokens(m.opts.refreshTokens)
	if err := fn(ctx, &memoryTx{state: work, refreshTokens: pending, now: m.now}); err != nil {
		return err
	}
	m.state = work
	return pending.flush(ctx)
}

// RefreshTokenCount returns the number of persisted refresh token rows.
func (m *MemoryStore) RefreshTokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.refreshTokens)
}

// AuthorityCount returns the number of persisted authority rows.
func (m *MemoryStore) AuthorityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.authorities)
}

type memoryTx struct {
	state         *memoryState
	refreshTokens *pendingRefreshTokens
	now           func() time.Time
}

func (t *memoryTx) Principals() PrincipalRepository   { return memoryPrincipals{t} }
func (t *memoryTx) Authorities() AuthorityRepository { return memoryAuthorities{t} }

func (t *memoryTx) RefreshTokens() RefreshTokenRepository {
	if t.refreshTokens != nil {
		return t.refreshTokens
	}
	return memoryRefreshTokens{t}
}

type memoryPrincipals struct{ tx *memoryTx }

func (r memoryPrincipals) Create(_ context.Context, principal *domain.Principal) error {
	if _, exists := r.tx.state.principals[principal.Username]; exists {
		return domain.ErrDuplicateUsername
	}
	principal.CreatedAt = r.tx.now()
	stored := *principal
	stored.Authorities = nil
	r.tx.state.principals[principal.Username] = stored
	return nil
}

func (r memoryPrincipals) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	stored, ok := r.tx.state.principals[username]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	authorities, _ := memoryAuthorities(r).ListByUsername(ctx, username)
	for _, a := range authorities {
		stored.Authorities = append(stored.Authorities, a.Authority)
	}
	return &stored, nil
}

func (r memoryPrincipals) IsEnabled(_ context.Context, username string) (bool, error) {
	stored, ok := r.tx.state.principals[username]
	if !ok {
		return false, domain.ErrPrincipalNotFound
	}
	return stored.Enabled, nil
}

func (r memoryPrincipals) SetEnabled(_ context.Context, username string, enabled bool) error {
	stored, ok := r.tx.state.principals[username]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	stored.Enabled = enabled
	r.tx.state.principals[username] = stored
	return nil
}

type memoryAuthorities struct{ tx *memoryTx }

func (r memoryAuthorities) Create(_ context.Context, authority *domain.Authority) error {
	if _, ok := r.tx.state.principals[authority.Username]; !ok {
		return domain.ErrPrincipalNotFound
	}
	r.tx.state.nextAuthority++
	authority.ID = r.tx.state.nextAuthority
	authority.CreatedAt = r.tx.now()
	r.tx.state.authorities = append(r.tx.state.authorities, *authority)
	return nil
}

func (r memoryAuthorities) ListByUsername(_ context.Context, username string) ([]domain.Authority, error) {
	var out []domain.Authority
	for _, a := range r.tx.state.authorities {
		if a.Username == username {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryRefreshTokens struct{ tx *memoryTx }

func (r memoryRefreshTokens) Save(_ context.Context, token *domain.RefreshToken) error {
	if _, ok := r.tx.state.principals[token.Username]; !ok {
		return domain.ErrPrincipalNotFound
	}
	token.CreatedAt = r.tx.now()
	r.tx.state.refreshTokens = append(r.tx.state.refreshTokens, *token)
	return nil
}

func (r memoryRefreshTokens) FindValid(_ context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error) {
	for i := len(r.tx.state.refreshTokens) - 1; i >= 0; i-- {
		record := r.tx.state.refreshTokens[i]
		if record.Token == token && record.Username == owner && !record.Expired(now) {
			return &record, nil
		}
	}
	return nil, nil
}
