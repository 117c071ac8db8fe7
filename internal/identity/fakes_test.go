// AngelaMos | 2026
// fakes_test.go

package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/omarkt13/seafable/internal/core"
)

type fakeAccounts struct {
	mu       sync.Mutex
	byID     map[string]*Account
	getErr   error
	created  int
	rehashed int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: make(map[string]*Account)}
}

func (f *fakeAccounts) Create(_ context.Context, account *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Email == strings.ToLower(account.Email) {
			return core.ErrDuplicateKey
		}
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	cp := *account
	f.byID[account.ID] = &cp
	f.created++
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byID {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	a.PasswordHash = hash
	f.rehashed++
	return nil
}

func (f *fakeAccounts) ConfirmEmail(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	a.EmailConfirmedAt = &now
	return nil
}

func (f *fakeAccounts) IncrementTokenVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	a.TokenVersion++
	return nil
}

func (f *fakeAccounts) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

type fakeTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byHash: make(map[string]*RefreshToken)}
}

func (f *fakeTokens) Create(_ context.Context, token *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	token.CreatedAt = time.Now()
	cp := *token
	f.byHash[token.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.byHash[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.byHash {
		if t.ID == id && !t.IsUsed {
			now := time.Now()
			t.IsUsed = true
			t.UsedAt = &now
			t.ReplacedByID = &replacedByID
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, t := range f.byHash {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokens) RevokeAllForAccount(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, t := range f.byHash {
		if t.AccountID == accountID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokens) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for hash, t := range f.byHash {
		if t.ExpiresAt.Before(cutoff) {
			delete(f.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (f *fakeTokens) revokedCount(familyID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.byHash {
		if t.FamilyID == familyID && t.RevokedAt != nil {
			n++
		}
	}
	return n
}

func fakeTx(tokens *fakeTokens) TxFunc {
	return func(_ context.Context, fn func(TokenRepository) error) error {
		return fn(tokens)
	}
}
