// Package scan decodes scanned attendance codes and tracks the scanner's
// idle/pending/result status for each schedule.
package scan

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformed       = errors.New("invalid QR code")
	ErrSessionMismatch = errors.New("QR Code is for a different session")
	ErrInvalidID       = errors.New("invalid ID format")
)

// Separator joins the subject and schedule ids in a scan payload.
const Separator = ":"

// Payload is a decoded scan.
type Payload struct {
	SubjectID  string `validate:"required,uuid_rfc4122"`
	ScheduleID string `validate:"required,uuid_rfc4122"`
}

// FormatError names the payload field that failed validation.
type FormatError struct {
	Field string
}

func (e *FormatError) Error() string {
	if e.Field == "ScheduleID" {
		return "Invalid Schedule ID format"
	}
	return "Invalid Student ID format"
}

func (e *FormatError) Unwrap() error { return ErrInvalidID }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode renders the wire form "<subjectId>:<scheduleId>".
func Encode(subjectID, scheduleID string) string {
	return subjectID + Separator + scheduleID
}

// Decode parses raw and checks it against the active schedule. The schedule
// check runs before id validation so a code from another session is always
// reported as such.
func Decode(raw, activeScheduleID string) (Payload, error) {
	parts := strings.Split(strings.TrimSpace(raw), Separator)
	if len(parts) != 2 {
		return Payload{}, ErrMalformed
	}
	p := Payload{SubjectID: parts[0], ScheduleID: parts[1]}
	if p.ScheduleID != activeScheduleID {
		return Payload{}, ErrSessionMismatch
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Payload{}, &FormatError{Field: verrs[0].Field()}
		}
		return Payload{}, ErrInvalidID
	}
	return p, nil
}
