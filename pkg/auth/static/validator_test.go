package static

import "testing"

func TestStaticValidator(t *testing.T) {
	v, err := NewValidator("t-1", "desktop")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	claims, err := v.Validate(" t-1 ")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "desktop" {
		t.Fatalf("expected subject desktop, got %q", claims.Subject)
	}
	if !claims.HasScope(ScopeControl) {
		t.Fatalf("expected default control scope")
	}

	if _, err := v.Validate("wrong"); err == nil {
		t.Fatalf("expected validation error for wrong token")
	}
}

func TestStaticValidator_ReadOnlyScopes(t *testing.T) {
	v, err := NewValidator("t-2", "", "imagegenie:read")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	claims, err := v.Validate("t-2")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "local" {
		t.Fatalf("expected default subject, got %q", claims.Subject)
	}
	if claims.HasScope(ScopeControl) {
		t.Fatalf("did not expect control scope")
	}
}

func TestStaticValidator_EmptyToken(t *testing.T) {
	if _, err := NewValidator("   ", "x"); err == nil {
		t.Fatal("expected error for empty token")
	}
}
