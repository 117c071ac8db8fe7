// AngelaMos | 2026
// resolver.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omarkt13/seafable/internal/core"
)

// ErrMultipleProfiles means more than one profile row carries the same auth
// id. It is never repaired automatically.
var ErrMultipleProfiles = errors.New("multiple profiles for one account")

// Kind says how a profile was obtained.
type Kind int

const (
	// Resolved: exactly one stored row matched.
	Resolved Kind = iota
	// Repaired: no row matched and a self-heal write created or relinked one.
	Repaired
	// Fallback: built from the identity alone; nothing stored could be trusted.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Repaired:
		return "repaired"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Repair int

const (
	RepairNone Repair = iota
	RepairInsert
	RepairReassign
)

func (r Repair) String() string {
	switch r {
	case RepairNone:
		return "none"
	case RepairInsert:
		return "insert"
	case RepairReassign:
		return "reassign"
	default:
		return fmt.Sprintf("repair(%d)", int(r))
	}
}

// Identity is what the account provider vouches for after a sign-in.
type Identity struct {
	UserID   string
	Email    string
	Metadata map[string]any
}

func (i Identity) String(key string) string {
	if v, ok := i.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// Store is the profile table a Resolver reads and repairs. Create returns
// core.ErrDuplicateKey when the row already exists.
type Store[R any] interface {
	ListByAuthID(ctx context.Context, authID string, limit int) ([]R, error)
	GetByEmail(ctx context.Context, email string) (R, error)
	ReassignAuthID(ctx context.Context, fromID, toID string) (R, error)
	Create(ctx context.Context, row R) error
}

type Config[R, P any] struct {
	// Name labels logs and spans, e.g. "customer".
	Name         string
	Store        Store[R]
	AuthID       func(R) string
	ToProfile    func(R) P
	FromIdentity func(Identity) R
	Fallback     func(Identity) P
	Logger       *slog.Logger
	Tracer       trace.Tracer
}

type Result[P any] struct {
	Kind    Kind
	Profile P
	Repair  Repair
	// Err is the failure that forced a Fallback, or a repair failure.
	Err error
}

func (r Result[P]) Degraded() bool {
	return r.Kind == Fallback
}

// Resolver maps an authenticated identity to its profile row, repairing a
// missing row on the way. It never fails: every problem ends in a Fallback.
type Resolver[R, P any] struct {
	cfg Config[R, P]
}

func NewResolver[R, P any](cfg Config[R, P]) *Resolver[R, P] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/omarkt13/seafable/internal/profile")
	}
	return &Resolver[R, P]{cfg: cfg}
}

func (r *Resolver[R, P]) Resolve(ctx context.Context, id Identity) Result[P] {
	ctx, span := r.cfg.Tracer.Start(ctx, "profile.resolve",
		trace.WithAttributes(attribute.String("profile.table", r.cfg.Name)),
	)
	defer span.End()

	res := r.resolve(ctx, id)

	span.SetAttributes(
		attribute.String("profile.kind", res.Kind.String()),
		attribute.String("profile.repair", res.Repair.String()),
	)
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
	}

	return res
}

func (r *Resolver[R, P]) resolve(ctx context.Context, id Identity) Result[P] {
	log := r.cfg.Logger.With(
		"profile", r.cfg.Name,
		"user_id", id.UserID,
	)

	rows, err := r.cfg.Store.ListByAuthID(ctx, id.UserID, 2)
	if err != nil {
		log.Error("profile lookup failed", "error", err)
		return r.fallback(id, RepairNone, fmt.Errorf("lookup %s profile: %w", r.cfg.Name, err))
	}

	switch len(rows) {
	case 1:
		return Result[P]{Kind: Resolved, Profile: r.cfg.ToProfile(rows[0])}
	case 0:
		return r.repair(ctx, log, id)
	default:
		log.Warn("duplicate profile rows", "rows", len(rows))
		return r.fallback(id, RepairNone, ErrMultipleProfiles)
	}
}

func (r *Resolver[R, P]) repair(
	ctx context.Context,
	log *slog.Logger,
	id Identity,
) Result[P] {
	if id.Email != "" {
		existing, err := r.cfg.Store.GetByEmail(ctx, id.Email)
		switch {
		case err == nil:
			return r.reassign(ctx, log, id, existing)
		case !errors.Is(err, core.ErrNotFound):
			log.Error("profile email lookup failed", "error", err)
			return r.fallback(id, RepairNone, fmt.Errorf("lookup %s profile by email: %w", r.cfg.Name, err))
		}
	}

	row := r.cfg.FromIdentity(id)
	err := r.cfg.Store.Create(ctx, row)
	if err == nil {
		log.Info("profile created on login")
		return Result[P]{Kind: Repaired, Repair: RepairInsert, Profile: r.cfg.ToProfile(row)}
	}

	if errors.Is(err, core.ErrDuplicateKey) {
		return r.reread(ctx, log, id)
	}

	log.Error("profile insert failed", "error", err)
	return r.fallback(id, RepairInsert, fmt.Errorf("create %s profile: %w", r.cfg.Name, err))
}

func (r *Resolver[R, P]) reassign(
	ctx context.Context,
	log *slog.Logger,
	id Identity,
	existing R,
) Result[P] {
	oldID := r.cfg.AuthID(existing)
	if oldID == id.UserID {
		return Result[P]{Kind: Resolved, Profile: r.cfg.ToProfile(existing)}
	}

	updated, err := r.cfg.Store.ReassignAuthID(ctx, oldID, id.UserID)
	if err != nil {
		log.Error("profile reassign failed", "previous_id", oldID, "error", err)
		return r.fallback(id, RepairReassign, fmt.Errorf("reassign %s profile: %w", r.cfg.Name, err))
	}

	log.Info("profile relinked to account", "previous_id", oldID)
	return Result[P]{Kind: Repaired, Repair: RepairReassign, Profile: r.cfg.ToProfile(updated)}
}

// reread runs after an insert lost a race with a concurrent login that
// created the same row.
func (r *Resolver[R, P]) reread(
	ctx context.Context,
	log *slog.Logger,
	id Identity,
) Result[P] {
	rows, err := r.cfg.Store.ListByAuthID(ctx, id.UserID, 2)
	if err != nil {
		log.Error("profile reread failed", "error", err)
		return r.fallback(id, RepairInsert, fmt.Errorf("reread %s profile: %w", r.cfg.Name, err))
	}
	if len(rows) != 1 {
		return r.fallback(id, RepairInsert, fmt.Errorf(
			"reread %s profile: %d rows after conflict: %w",
			r.cfg.Name,
			len(rows),
			core.ErrDuplicateKey,
		))
	}
	return Result[P]{Kind: Resolved, Profile: r.cfg.ToProfile(rows[0])}
}

func (r *Resolver[R, P]) fallback(id Identity, repair Repair, err error) Result[P] {
	return Result[P]{
		Kind:    Fallback,
		Repair:  repair,
		Profile: r.cfg.Fallback(id),
		Err:     err,
	}
}
