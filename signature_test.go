package reqtx

import (
	"errors"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestValidateSignature(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool)

	tests := []struct {
		name        string
		sig         Signature
		wantLeading int
		wantSubject string
	}{
		{
			name:        "standard_with_query_and_model",
			sig:         Signature{Leading: 3, Capabilities: []string{"query", "Article"}},
			wantLeading: leadingStandard,
		},
		{
			name:        "error_channel_bare",
			sig:         Signature{Leading: 4},
			wantLeading: leadingErrorChannel,
		},
		{
			name:        "model_lookup_is_case_sensitive_declaration",
			sig:         Signature{Leading: 3, Capabilities: []string{"comment"}},
			wantLeading: leadingStandard,
			wantSubject: "comment",
		},
		{
			name:        "unknown_leading_arity",
			sig:         Signature{Leading: 2},
			wantLeading: leadingStandard,
			wantSubject: "Leading",
		},
		{
			name:        "arity_mismatch_with_entry_point",
			sig:         Signature{Leading: 4},
			wantLeading: leadingStandard,
			wantSubject: "Leading",
		},
		{
			name:        "unregistered_model",
			sig:         Signature{Leading: 3, Capabilities: []string{"Invoice"}},
			wantLeading: leadingStandard,
			wantSubject: "Invoice",
		},
		{
			name:        "malformed_capability_name",
			sig:         Signature{Leading: 3, Capabilities: []string{"bad-name"}},
			wantLeading: leadingStandard,
			wantSubject: "bad-name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.validateSignature(tt.sig, tt.wantLeading)

			if tt.wantSubject == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var sigErr *SignatureError
			if !errors.As(err, &sigErr) {
				t.Fatalf("expected SignatureError, got %v", err)
			}
			if sigErr.Subject != tt.wantSubject {
				t.Errorf("expected subject %q, got %q", tt.wantSubject, sigErr.Subject)
			}
		})
	}
}

func TestValidateSignature_RenamedQueryCapability(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool, WithQueryCapability("knex"))

	if err := b.validateSignature(Signature{Leading: 3, Capabilities: []string{"knex"}}, leadingStandard); err != nil {
		t.Fatalf("renamed query capability rejected: %v", err)
	}

	// the old default is now just a malformed model name
	err := b.validateSignature(Signature{Leading: 3, Capabilities: []string{"query"}}, leadingStandard)
	var sigErr *SignatureError
	if !errors.As(err, &sigErr) {
		t.Fatalf("expected SignatureError for stale default, got %v", err)
	}
}

func TestWrap_PanicsOnInvalidDeclaration(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic at wrap time")
		}
	}()

	b.Wrap(func(c echo.Context, args Args) error { return nil }, Options{
		Signature: Signature{Leading: 3, Capabilities: []string{"Invoice"}},
	})
}
