package ridepool

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// FormDraft holds in-progress registration or edit input. Fields keep their
// input representation; numeric fields are parsed only on submit. A draft is
// an independent copy: editing it never touches the cached profile.
type FormDraft struct {
	Nickname      string `form:"nickname" json:"nickname"`
	Phone         string `form:"phone" json:"phone"`
	Address       string `form:"address" json:"address"`
	NumberOfKids  string `form:"numberOfKids" json:"numberOfKids"`
	NumberOfSeats string `form:"numberOfSeats" json:"numberOfSeats"`
	CarpoolStatus string `form:"carpoolStatus" json:"carpoolStatus"`
}

// NewFormDraft returns an empty draft for registration forms.
func NewFormDraft() *FormDraft {
	return &FormDraft{
		NumberOfKids:  "0",
		NumberOfSeats: "0",
		CarpoolStatus: string(CarpoolStatusLooking),
	}
}

// DraftFromProfile seeds a draft from the cached profile for edit forms.
func DraftFromProfile(p *Profile) *FormDraft {
	if p == nil {
		return NewFormDraft()
	}
	return &FormDraft{
		Nickname:      p.Nickname,
		Phone:         p.Phone,
		Address:       p.Address,
		NumberOfKids:  strconv.Itoa(p.NumberOfKids),
		NumberOfSeats: strconv.Itoa(p.NumberOfSeats),
		CarpoolStatus: string(p.CarpoolStatus),
	}
}

// Validate will validate the draft input
func (d FormDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Nickname, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Phone, validation.Required, validation.Length(1, 30)),
		validation.Field(&d.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&d.NumberOfKids, validation.Required, is.Digit),
		validation.Field(&d.NumberOfSeats, validation.Required, is.Digit),
		validation.Field(&d.CarpoolStatus, validation.Required, validation.By(validateDraftStatus)),
	)
}

func validateDraftStatus(value any) error {
	status, _ := value.(string)
	if !CarpoolStatus(status).Valid() {
		return ErrInvalidDraft.WithMetadata(map[string]any{
			"field": "carpoolStatus",
			"value": status,
		})
	}
	return nil
}

// Profile converts the draft into a profile record keyed by identifier.
// Validation and integer parsing happen here; a parse failure is a
// validation error and blocks submission before any network call.
func (d *FormDraft) Profile(identifier, email string) (*Profile, error) {
	if err := d.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile form")
	}

	kids, err := parseCount(d.NumberOfKids)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "numberOfKids is not a non-negative integer")
	}

	seats, err := parseCount(d.NumberOfSeats)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "numberOfSeats is not a non-negative integer")
	}

	return &Profile{
		Identifier:    identifier,
		Email:         email,
		Nickname:      strings.TrimSpace(d.Nickname),
		Phone:         NormalizePhone(strings.TrimSpace(d.Phone), ""),
		Address:       strings.TrimSpace(d.Address),
		NumberOfKids:  kids,
		NumberOfSeats: seats,
		CarpoolStatus: CarpoolStatus(d.CarpoolStatus),
	}, nil
}

// Reset discards the draft contents back to registration defaults.
func (d *FormDraft) Reset() {
	*d = *NewFormDraft()
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
