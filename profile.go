package ridepool

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// CarpoolStatus is the participant's matching status
type CarpoolStatus string

const (
	// CarpoolStatusLooking means the family is looking for a ride
	CarpoolStatusLooking CarpoolStatus = "looking"
	// CarpoolStatusOffering means the family offers seats
	CarpoolStatusOffering CarpoolStatus = "offering"
	// CarpoolStatusMatched means the family is part of a pool
	CarpoolStatusMatched CarpoolStatus = "matched"
	// CarpoolStatusInactive means the family paused participation
	CarpoolStatusInactive CarpoolStatus = "inactive"
)

// Valid reports whether the status is one of the supported values.
func (s CarpoolStatus) Valid() bool {
	switch s {
	case CarpoolStatusLooking, CarpoolStatusOffering, CarpoolStatusMatched, CarpoolStatusInactive:
		return true
	}
	return false
}

// CarpoolStatuses returns every supported status value.
func CarpoolStatuses() []CarpoolStatus {
	return []CarpoolStatus{
		CarpoolStatusLooking,
		CarpoolStatusOffering,
		CarpoolStatusMatched,
		CarpoolStatusInactive,
	}
}

// Profile is the persisted carpool participant record. The remote profile
// service owns it; the state machine only caches a copy.
type Profile struct {
	Identifier    string        `json:"userId,omitempty"`
	Email         string        `json:"email,omitempty"`
	Nickname      string        `json:"nickname,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address,omitempty"`
	NumberOfKids  int           `json:"numberOfKids"`
	NumberOfSeats int           `json:"numberOfSeats"`
	CarpoolStatus CarpoolStatus `json:"carpoolStatus,omitempty"`
}

// Validate will validate the profile record
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Identifier, validation.Required),
		validation.Field(&p.Nickname, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Phone, validation.Required, validation.Length(1, 30)),
		validation.Field(&p.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.NumberOfKids, validation.Min(0)),
		validation.Field(&p.NumberOfSeats, validation.Min(0)),
		validation.Field(&p.CarpoolStatus, validation.Required, validation.By(validateCarpoolStatus)),
	)
}

func validateCarpoolStatus(value any) error {
	status, _ := value.(CarpoolStatus)
	if !status.Valid() {
		return ErrInvalidDraft.WithMetadata(map[string]any{
			"field": "carpoolStatus",
			"value": string(status),
		})
	}
	return nil
}

// ProfileIdentifier derives the remote resource key from the session email,
// percent-encoded for use as a path segment.
func ProfileIdentifier(email string) string {
	return url.PathEscape(email)
}

// NormalizePhone formats a phone number to E.164 when it parses as a valid
// number for the region. Inputs that do not parse are returned unchanged so
// local short forms are still accepted.
func NormalizePhone(raw, region string) string {
	if region == "" {
		region = "US"
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// FallbackUserID derives a stable UUID from the email for providers that
// omit a subject claim.
func FallbackUserID(email string) (uuid.UUID, error) {
	return hashid.NewUUID(email)
}
