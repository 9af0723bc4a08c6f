package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/service"
)

func TestResolveFromPrimary(t *testing.T) {
	primary := &stubSource{defs: map[string]agent.Definition{
		"payments-agent": {ID: "payments-agent", Model: "gpt-4o", Capabilities: []string{"a", "a", "b"}},
	}}
	svc := service.NewDefinitionService(primary, nil, nil, time.Minute, discardLogger())

	def, err := svc.Resolve(context.Background(), "payments-agent")
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Capabilities) != 2 {
		t.Errorf("capabilities not deduplicated: %v", def.Capabilities)
	}
	if def.RiskTier != agent.RiskMedium {
		t.Errorf("RiskTier = %q, want defaulted medium", def.RiskTier)
	}
	if !def.IsInteractive() {
		t.Error("model-backed definition should default to interactive")
	}
}

func TestResolveFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubSource{err: errors.New("control plane unreachable")}
	fallback := &stubSource{defs: map[string]agent.Definition{
		"payments-agent": {ID: "payments-agent"},
	}}
	svc := service.NewDefinitionService(primary, fallback, nil, time.Minute, discardLogger())

	def, err := svc.Resolve(context.Background(), "payments-agent")
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != "payments-agent" {
		t.Errorf("ID = %q", def.ID)
	}
}

func TestResolveFallsBackOnNotFound(t *testing.T) {
	// Not-found from the primary degrades like any other failure.
	primary := &stubSource{defs: map[string]agent.Definition{}}
	fallback := &stubSource{defs: map[string]agent.Definition{
		"local-only": {ID: "local-only"},
	}}
	svc := service.NewDefinitionService(primary, fallback, nil, time.Minute, discardLogger())

	if _, err := svc.Resolve(context.Background(), "local-only"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestResolveBothSourcesFail(t *testing.T) {
	primary := &stubSource{err: errors.New("down")}
	fallback := &stubSource{defs: map[string]agent.Definition{}}
	svc := service.NewDefinitionService(primary, fallback, nil, time.Minute, discardLogger())

	_, err := svc.Resolve(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want wrapped ErrNotFound from fallback", err)
	}
}

func TestResolveNoFallbackPropagatesPrimaryError(t *testing.T) {
	primary := &stubSource{err: errors.New("down")}
	svc := service.NewDefinitionService(primary, nil, nil, time.Minute, discardLogger())

	if _, err := svc.Resolve(context.Background(), "any"); err == nil {
		t.Error("expected error with no fallback configured")
	}
}

func TestResolveUsesCache(t *testing.T) {
	primary := &stubSource{defs: map[string]agent.Definition{
		"payments-agent": {ID: "payments-agent"},
	}}
	c := newMemCache()
	svc := service.NewDefinitionService(primary, nil, c, time.Minute, discardLogger())

	ctx := context.Background()
	if _, err := svc.Resolve(ctx, "payments-agent"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resolve(ctx, "payments-agent"); err != nil {
		t.Fatal(err)
	}
	if primary.fetchCount() != 1 {
		t.Errorf("fetched %d times, want 1 (second resolve cached)", primary.fetchCount())
	}

	svc.Invalidate(ctx, "payments-agent")
	if _, err := svc.Resolve(ctx, "payments-agent"); err != nil {
		t.Fatal(err)
	}
	if primary.fetchCount() != 2 {
		t.Errorf("fetched %d times after invalidate, want 2", primary.fetchCount())
	}
}

func TestResolveRejectsInvalidDefinition(t *testing.T) {
	primary := &stubSource{defs: map[string]agent.Definition{
		"bad": {ID: "bad", RiskTier: "extreme"},
	}}
	svc := service.NewDefinitionService(primary, nil, nil, time.Minute, discardLogger())

	_, err := svc.Resolve(context.Background(), "bad")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
