package domain

import (
	"fmt"
	"time"

	"crm_viajes_backend/platform/apperr"
)

// Human-facing identifier prefixes. Case-sensitive; exposed for exact and
// substring lookup by the search endpoint.
const (
	PrefijoCliente    = "CL"
	PrefijoDocumento  = "DOC"
	PrefijoCotizacion = "COT"
)

// GenerateID composes a human-facing identifier of the form
// {PREFIX}-{YYYYMMDD}-{row id zero-padded to 4 digits}.
//
// It is idempotent: when current is already non-empty it is returned
// unchanged. The entity must have been flushed so its row id is assigned;
// calling this with rowID <= 0 is a programmer error surfaced as an internal
// error rather than undefined behavior.
func GenerateID(current, prefix string, now time.Time, rowID int64) (string, error) {
	if current != "" {
		return current, nil
	}
	if rowID <= 0 {
		return "", apperr.Internal("generate id: row id not assigned")
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), rowID), nil
}
