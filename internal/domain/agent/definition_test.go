package agent

import (
	"errors"
	"testing"

	"github.com/Strob0t/Warden/internal/domain"
)

func TestNormalizeDedupesCapabilities(t *testing.T) {
	d := Definition{
		ID:           "payments-agent",
		Capabilities: []string{"get_payment_exception", "execute_payment_retry", "get_payment_exception"},
	}
	d.Normalize()

	want := []string{"get_payment_exception", "execute_payment_retry"}
	if len(d.Capabilities) != len(want) {
		t.Fatalf("capabilities = %v, want %v", d.Capabilities, want)
	}
	for i := range want {
		if d.Capabilities[i] != want[i] {
			t.Errorf("capabilities[%d] = %q, want %q", i, d.Capabilities[i], want[i])
		}
	}
}

func TestNormalizeDefaultsRiskTier(t *testing.T) {
	d := Definition{ID: "a"}
	d.Normalize()
	if d.RiskTier != RiskMedium {
		t.Errorf("RiskTier = %q, want %q", d.RiskTier, RiskMedium)
	}

	d = Definition{ID: "a", RiskTier: RiskHigh}
	d.Normalize()
	if d.RiskTier != RiskHigh {
		t.Errorf("explicit RiskTier overwritten: %q", d.RiskTier)
	}
}

func TestNormalizeInteractiveDefault(t *testing.T) {
	no := false

	tests := []struct {
		name string
		def  Definition
		want bool
	}{
		{"model set, flag nil", Definition{ID: "a", Model: "gpt-4o"}, true},
		{"no model, flag nil", Definition{ID: "a"}, false},
		{"model set, flag explicit false", Definition{ID: "a", Model: "gpt-4o", Interactive: &no}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.def.Normalize()
			if got := tt.def.IsInteractive(); got != tt.want {
				t.Errorf("IsInteractive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	d := Definition{RiskTier: RiskLow}
	if err := d.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing id: err = %v, want ErrValidation", err)
	}

	d = Definition{ID: "a", RiskTier: "extreme"}
	if err := d.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown tier: err = %v, want ErrValidation", err)
	}

	d = Definition{ID: "a", RiskTier: RiskHigh}
	if err := d.Validate(); err != nil {
		t.Errorf("valid definition: err = %v", err)
	}
}

func TestRiskTierLevel(t *testing.T) {
	if RiskLow.Level() >= RiskMedium.Level() || RiskMedium.Level() >= RiskHigh.Level() {
		t.Error("risk tiers not strictly ordered")
	}
	if RiskTier("bogus").Level() != -1 {
		t.Error("unknown tier should rank -1")
	}
}

func TestDeclaresCapability(t *testing.T) {
	d := Definition{ID: "a", Capabilities: []string{"lookup"}}
	if !d.DeclaresCapability("lookup") {
		t.Error("expected declared capability")
	}
	if d.DeclaresCapability("delete_everything") {
		t.Error("undeclared capability reported as declared")
	}
}
