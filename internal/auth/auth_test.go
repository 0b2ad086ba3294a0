package auth

import (
	"errors"
	"testing"
)

func TestStaticTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFromToken(t *testing.T) {
	if _, ok := FromToken("  ").(Open); !ok {
		t.Fatalf("blank token should yield Open validator")
	}
	if err := FromToken("").Validate("anything"); err != nil {
		t.Fatalf("open validator rejected: %v", err)
	}
	v := FromToken(" abc ")
	if err := v.Validate("abc"); err != nil {
		t.Fatalf("trimmed token rejected: %v", err)
	}
	if err := v.Validate(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected missing token rejected, got %v", err)
	}
}
