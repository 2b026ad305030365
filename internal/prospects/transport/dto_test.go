package transport

import (
	"testing"
	"time"

	"crm_viajes_backend/platform/apperr"
)

func TestParseDateAcceptsBothLayouts(t *testing.T) {
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"15/03/2026", "2026-03-15"} {
		got, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("ParseDate(%q) = %v", raw, err)
		}
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseDateEmptyIsNil(t *testing.T) {
	got, err := ParseDate("")
	if err != nil || got != nil {
		t.Errorf("ParseDate(\"\") = %v, %v", got, err)
	}
}

func TestParseDateRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"31/02/2026", "15-03-2026", "ayer"} {
		if _, err := ParseDate(raw); apperr.GetKind(err) != apperr.KindValidation {
			t.Errorf("ParseDate(%q) err = %v, want validation", raw, err)
		}
	}
}
