package domain

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	t.Run("formats prefix, date and padded row id", func(t *testing.T) {
		got, err := GenerateID("", PrefijoCliente, now, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "CL-20260828-0007" {
			t.Errorf("got %q, want CL-20260828-0007", got)
		}
	})

	t.Run("padding widens past four digits", func(t *testing.T) {
		got, err := GenerateID("", PrefijoCotizacion, now, 12345)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "COT-20260828-12345" {
			t.Errorf("got %q, want COT-20260828-12345", got)
		}
	})

	t.Run("idempotent when already assigned", func(t *testing.T) {
		existing := "DOC-20250101-0001"
		got, err := GenerateID(existing, PrefijoDocumento, now, 99)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != existing {
			t.Errorf("got %q, want the existing identifier back", got)
		}
	})

	t.Run("rejects unassigned row id", func(t *testing.T) {
		if _, err := GenerateID("", PrefijoCliente, now, 0); err == nil {
			t.Error("expected error for row id 0")
		}
	})
}
