package id

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time, which keeps archive keys and event ids ordered.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewApplicantID returns a random UUID. Applicant ids are exposed to the
// browser as userId, so they carry no timestamp.
func NewApplicantID() string {
	return uuid.NewString()
}

// IsApplicantID reports whether s parses as a UUID.
func IsApplicantID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
