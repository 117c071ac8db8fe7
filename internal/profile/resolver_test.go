// AngelaMos | 2026
// resolver_test.go

package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omarkt13/seafable/internal/core"
)

type row struct {
	ID        string
	Email     string
	FirstName string
	Role      *string
	AvatarURL *string
}

type view struct {
	ID        string
	Email     string
	FirstName string
	Role      string
	AvatarURL string
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListByAuthID(ctx context.Context, authID string, limit int) ([]row, error) {
	args := m.Called(ctx, authID, limit)
	rows, _ := args.Get(0).([]row)
	return rows, args.Error(1)
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (row, error) {
	args := m.Called(ctx, email)
	r, _ := args.Get(0).(row)
	return r, args.Error(1)
}

func (m *mockStore) ReassignAuthID(ctx context.Context, fromID, toID string) (row, error) {
	args := m.Called(ctx, fromID, toID)
	r, _ := args.Get(0).(row)
	return r, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, r row) error {
	return m.Called(ctx, r).Error(0)
}

func toView(r row) view {
	v := view{ID: r.ID, Email: r.Email, FirstName: r.FirstName, Role: "user"}
	if r.Role != nil {
		v.Role = *r.Role
	}
	if r.AvatarURL != nil {
		v.AvatarURL = *r.AvatarURL
	}
	return v
}

func newTestResolver(store Store[row]) *Resolver[row, view] {
	return NewResolver(Config[row, view]{
		Name:      "customer",
		Store:     store,
		AuthID:    func(r row) string { return r.ID },
		ToProfile: toView,
		FromIdentity: func(id Identity) row {
			return row{ID: id.UserID, Email: id.Email, FirstName: id.String("first_name")}
		},
		Fallback: func(id Identity) view {
			return view{ID: id.UserID, Email: id.Email, FirstName: id.String("first_name"), Role: "user"}
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

var testIdentity = Identity{
	UserID:   "0b6c6c1e-3c1a-4a57-9a55-6f1a5c4d2e11",
	Email:    "ada@example.com",
	Metadata: map[string]any{"first_name": "Ada"},
}

func strPtr(s string) *string { return &s }

func TestResolveExactlyOneRow(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored fields", func(t *testing.T) {
		store := &mockStore{}
		stored := row{
			ID:        testIdentity.UserID,
			Email:     "ada@example.com",
			FirstName: "Augusta",
			Role:      strPtr("admin"),
			AvatarURL: strPtr("https://cdn.example.com/a.png"),
		}
		store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{stored}, nil)

		res := newTestResolver(store).Resolve(ctx, testIdentity)

		assert.Equal(t, Resolved, res.Kind)
		assert.Equal(t, RepairNone, res.Repair)
		assert.NoError(t, res.Err)
		assert.Equal(t, toView(stored), res.Profile)
		assert.Equal(t, "admin", res.Profile.Role)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "ReassignAuthID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("null role defaults to user", func(t *testing.T) {
		store := &mockStore{}
		stored := row{ID: testIdentity.UserID, Email: "ada@example.com", FirstName: "Augusta"}
		store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{stored}, nil)

		res := newTestResolver(store).Resolve(ctx, testIdentity)

		assert.Equal(t, Resolved, res.Kind)
		assert.Equal(t, "user", res.Profile.Role)
		assert.Equal(t, "Augusta", res.Profile.FirstName)
	})
}

func TestResolveZeroRowsInsertsOnce(t *testing.T) {
	store := &mockStore{}
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{}, nil)
	store.On("GetByEmail", mock.Anything, testIdentity.Email).Return(row{}, core.ErrNotFound)
	store.On("Create", mock.Anything, mock.AnythingOfType("profile.row")).Return(nil)

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Repaired, res.Kind)
	assert.Equal(t, RepairInsert, res.Repair)
	assert.Equal(t, "user", res.Profile.Role)
	assert.Equal(t, "Ada", res.Profile.FirstName)
	store.AssertNumberOfCalls(t, "Create", 1)
	store.AssertNotCalled(t, "ReassignAuthID", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveZeroRowsReassignsByEmail(t *testing.T) {
	store := &mockStore{}
	legacy := row{ID: "legacy-id", Email: testIdentity.Email, FirstName: "Ada", Role: strPtr("user")}
	relinked := legacy
	relinked.ID = testIdentity.UserID

	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{}, nil)
	store.On("GetByEmail", mock.Anything, testIdentity.Email).Return(legacy, nil)
	store.On("ReassignAuthID", mock.Anything, "legacy-id", testIdentity.UserID).Return(relinked, nil)

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Repaired, res.Kind)
	assert.Equal(t, RepairReassign, res.Repair)
	assert.Equal(t, testIdentity.UserID, res.Profile.ID)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveRepairFailureFallsBack(t *testing.T) {
	store := &mockStore{}
	legacy := row{ID: "legacy-id", Email: testIdentity.Email}
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{}, nil)
	store.On("GetByEmail", mock.Anything, testIdentity.Email).Return(legacy, nil)
	store.On("ReassignAuthID", mock.Anything, "legacy-id", testIdentity.UserID).
		Return(row{}, errors.New("permission denied"))

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Fallback, res.Kind)
	assert.Equal(t, RepairReassign, res.Repair)
	assert.True(t, res.Degraded())
	assert.Error(t, res.Err)
	assert.Equal(t, testIdentity.UserID, res.Profile.ID)
}

func TestResolveInsertConflictRereads(t *testing.T) {
	store := &mockStore{}
	winner := row{ID: testIdentity.UserID, Email: testIdentity.Email, FirstName: "Ada"}

	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{}, nil).Once()
	store.On("GetByEmail", mock.Anything, testIdentity.Email).Return(row{}, core.ErrNotFound)
	store.On("Create", mock.Anything, mock.Anything).Return(core.ErrDuplicateKey)
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{winner}, nil).Once()

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Resolved, res.Kind)
	assert.NoError(t, res.Err)
	assert.Equal(t, toView(winner), res.Profile)
	store.AssertNumberOfCalls(t, "ListByAuthID", 2)
}

func TestResolveLookupErrorFallsBack(t *testing.T) {
	store := &mockStore{}
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).
		Return(nil, errors.New("dial tcp: connection refused"))

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	require.Equal(t, Fallback, res.Kind)
	assert.Error(t, res.Err)
	assert.Equal(t, view{
		ID:        testIdentity.UserID,
		Email:     testIdentity.Email,
		FirstName: "Ada",
		Role:      "user",
	}, res.Profile)
	assert.Empty(t, res.Profile.AvatarURL)
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveDuplicateRowsNeverWrites(t *testing.T) {
	store := &mockStore{}
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{
		{ID: testIdentity.UserID, FirstName: "One"},
		{ID: testIdentity.UserID, FirstName: "Two"},
	}, nil)

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Fallback, res.Kind)
	assert.ErrorIs(t, res.Err, ErrMultipleProfiles)
	assert.Equal(t, "Ada", res.Profile.FirstName)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ReassignAuthID", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveEmailLookupErrorFallsBack(t *testing.T) {
	store := &mockStore{}
	store.On("ListByAuthID", mock.Anything, testIdentity.UserID, 2).Return([]row{}, nil)
	store.On("GetByEmail", mock.Anything, testIdentity.Email).Return(row{}, errors.New("timeout"))

	res := newTestResolver(store).Resolve(context.Background(), testIdentity)

	assert.Equal(t, Fallback, res.Kind)
	assert.Equal(t, RepairNone, res.Repair)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestKindAndRepairString(t *testing.T) {
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "repaired", Repaired.String())
	assert.Equal(t, "fallback", Fallback.String())
	assert.Equal(t, "insert", RepairInsert.String())
	assert.Equal(t, "reassign", RepairReassign.String())
}
