// AngelaMos | 2026
// service_test.go

package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/middleware"
	"github.com/omarkt13/seafable/internal/profile"
)

const testUserID = "7d0c4e5e-9f43-4b8e-8f39-0c1b2f0f6a21"

type fakeRepo struct {
	rows      map[string]Customer
	listErr   error
	updateErr error
	creates   int
}

func newFakeRepo(rows ...Customer) *fakeRepo {
	f := &fakeRepo{rows: make(map[string]Customer)}
	for _, c := range rows {
		f.rows[c.ID] = c
	}
	return f
}

func (f *fakeRepo) Create(_ context.Context, c Customer) error {
	f.creates++
	if _, ok := f.rows[c.ID]; ok {
		return core.ErrDuplicateKey
	}
	f.rows[c.ID] = c
	return nil
}

func (f *fakeRepo) ListByAuthID(_ context.Context, authID string, _ int) ([]Customer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if c, ok := f.rows[authID]; ok {
		return []Customer{c}, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (Customer, error) {
	for _, c := range f.rows {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return Customer{}, core.ErrNotFound
}

func (f *fakeRepo) ReassignAuthID(_ context.Context, fromID, toID string) (Customer, error) {
	c, ok := f.rows[fromID]
	if !ok {
		return Customer{}, core.ErrNotFound
	}
	delete(f.rows, fromID)
	c.ID = toID
	f.rows[toID] = c
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Customer, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) Update(_ context.Context, c *Customer) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	c.UpdatedAt = time.Now()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServiceCreate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), testUserID, "Ada@Example.com", "Ada", "Lovelace")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, DefaultRole, p.Role)
	require.Contains(t, repo.rows, testUserID)
	assert.Equal(t, "Lovelace", repo.rows[testUserID].LastName)

	_, err = svc.Create(context.Background(), testUserID, "ada@example.com", "Ada", "Lovelace")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestServiceResolve(t *testing.T) {
	id := profile.Identity{
		UserID:   testUserID,
		Email:    "ada@example.com",
		Metadata: map[string]any{"first_name": "Ada", "last_name": "Lovelace"},
	}

	t.Run("stored row with null role", func(t *testing.T) {
		repo := newFakeRepo(Customer{ID: testUserID, Email: "ada@example.com", FirstName: "Augusta"})

		res := newTestService(repo).Resolve(context.Background(), id)

		assert.Equal(t, profile.Resolved, res.Kind)
		assert.Equal(t, "Augusta", res.Profile.FirstName)
		assert.Equal(t, "user", res.Profile.Role)
		assert.Zero(t, repo.creates)
	})

	t.Run("missing row is created from the session", func(t *testing.T) {
		repo := newFakeRepo()

		res := newTestService(repo).Resolve(context.Background(), id)

		assert.Equal(t, profile.Repaired, res.Kind)
		assert.Equal(t, profile.RepairInsert, res.Repair)
		assert.Equal(t, "Lovelace", res.Profile.LastName)
		assert.Equal(t, 1, repo.creates)
	})

	t.Run("store failure falls back", func(t *testing.T) {
		repo := newFakeRepo()
		repo.listErr = errors.New("connection reset by peer")

		res := newTestService(repo).Resolve(context.Background(), id)

		assert.True(t, res.Degraded())
		assert.Equal(t, "Ada", res.Profile.FirstName)
		assert.Nil(t, res.Profile.CreatedAt)
		assert.Zero(t, repo.creates)
	})
}

func TestServiceUpdateMe(t *testing.T) {
	repo := newFakeRepo(Customer{ID: testUserID, Email: "ada@example.com", FirstName: "Ada", LastName: "L"})
	svc := newTestService(repo)

	last := "Lovelace"
	c, err := svc.UpdateMe(context.Background(), testUserID, UpdateCustomerRequest{LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.FirstName)
	assert.Equal(t, "Lovelace", c.LastName)

	_, err = svc.UpdateMe(context.Background(), "", UpdateCustomerRequest{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.UpdateMe(context.Background(), "someone-else", UpdateCustomerRequest{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func asUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{UserID: id, Role: "customer"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestHandlerMe(t *testing.T) {
	repo := newFakeRepo(Customer{ID: testUserID, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"})

	r := chi.NewRouter()
	NewHandler(newTestService(repo)).RegisterRoutes(r, asUser(testUserID))

	req := httptest.NewRequest(http.MethodGet, "/customers/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Lovelace", got.Data.LastName)
	assert.Equal(t, DefaultRole, got.Data.Role)

	body, _ := json.Marshal(map[string]string{"avatar_url": "not a url"})
	req = httptest.NewRequest(http.MethodPut, "/customers/me", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "avatar_url must be a valid URL")

	body, _ = json.Marshal(map[string]string{"avatar_url": "https://cdn.example.com/a.png"})
	req = httptest.NewRequest(http.MethodPut, "/customers/me", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.rows[testUserID].AvatarURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *repo.rows[testUserID].AvatarURL)
}

func TestHandlerMeMissingRow(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(newTestService(newFakeRepo())).RegisterRoutes(r, asUser(testUserID))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/me", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
