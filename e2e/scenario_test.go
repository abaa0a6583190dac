//go:build e2e

package e2e

import (
	"context"
	"testing"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/internal/backend"
	"github.com/jacentio/tether/user"
	"github.com/jacentio/tether/validate"
)

func mustAuthType(t *testing.T, b *backend.Backend, source user.AuthType) *user.AuthTypeEntity {
	t.Helper()
	e := &user.AuthTypeEntity{}
	e.SetSource(source)
	saved, err := b.AuthTypes.Save(context.Background(), e, nil)
	if err != nil {
		t.Fatalf("save auth type: %v", err)
	}
	if saved == nil || saved.ID() == "" {
		t.Fatal("expected auth type to be created")
	}
	return saved
}

func mustPrincipal(t *testing.T, b *backend.Backend, principalID string) *user.PrincipalEntity {
	t.Helper()
	e := &user.PrincipalEntity{}
	e.SetPrincipalID(principalID)
	saved, err := b.Principals.Service().Save(context.Background(), e, nil)
	if err != nil {
		t.Fatalf("save principal entity: %v", err)
	}
	if saved == nil {
		t.Fatal("expected principal entity to be created")
	}
	return saved
}

// runAttachScenario exercises the principal attachment against a real backend.
func runAttachScenario(t *testing.T, b *backend.Backend) {
	ctx := context.Background()
	at := mustAuthType(t, b, user.Password)
	p := b.Principals

	t.Run("Count", func(t *testing.T) {
		n, err := p.CountByPrincipalID(ctx, at.ID())
		if err != nil {
			t.Fatalf("CountByPrincipalID failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 entities, got %d", n)
		}
	})

	e := mustPrincipal(t, b, at.ID())

	t.Run("FindByPrincipalID", func(t *testing.T) {
		got, ok, err := p.FindByPrincipalID(ctx, at.ID()).First(ctx)
		if err != nil {
			t.Fatalf("First failed: %v", err)
		}
		if !ok || got.ID() != e.ID() {
			t.Errorf("expected %s, got %v (found=%v)", e.ID(), got, ok)
		}
		if got.CreatedAt().IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("Join", func(t *testing.T) {
		j, ok, err := attach.FindWithPrincipal[*user.PrincipalEntity, *user.AuthTypeEntity](ctx, p, b.AuthTypes, p.FilterByPrincipalID(at.ID())).First(ctx)
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if !ok || !j.Found {
			t.Fatal("expected joined auth type")
		}
		if j.Principal.Source() != user.Password {
			t.Errorf("expected source Password, got %s", j.Principal.Source())
		}
	})

	t.Run("PrincipalImmutable", func(t *testing.T) {
		other := mustAuthType(t, b, user.Mobile)
		e.SetPrincipalID(other.ID())
		v := validate.New()
		saved, err := p.Service().Save(ctx, e, v)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if saved != nil {
			t.Error("expected save to be rejected")
		}
		if msgs := v.FieldError(attach.FieldNamePrincipalID); len(msgs) != 1 || msgs[0] != attach.MessagePrincipalChanged {
			t.Errorf("expected %q, got %v", attach.MessagePrincipalChanged, msgs)
		}

		stored, _, err := p.Service().FindByID(ctx, e.ID())
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if stored.PrincipalID() != at.ID() {
			t.Errorf("expected stored principal %s, got %s", at.ID(), stored.PrincipalID())
		}
		e.SetPrincipalID(at.ID())
	})

	t.Run("Cascade", func(t *testing.T) {
		mustPrincipal(t, b, at.ID())
		n, err := b.Registry.Detach(ctx, b.AuthTypes.Collection(), at.ID())
		if err != nil {
			t.Fatalf("Detach failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 detached, got %d", n)
		}
		_, found, err := p.Service().FindByID(ctx, e.ID())
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found {
			t.Error("expected detached entity to be gone")
		}
	})
}
