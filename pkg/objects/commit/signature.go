package commit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Signature identifies the author, committer or tagger of an object.
//
// Signature Structure:
// ┌─────────────────────────────────────────────────────────────────┐
// │ Name <email> unix-seconds ±HHMM                                 │
// └─────────────────────────────────────────────────────────────────┘
//
// Example: "John Doe <john@example.com> 1609459200 +0530"
//
// When always carries a fixed zone with the recorded UTC offset, so
// formatting a parsed signature reproduces the original text.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// NewSignature validates name and email and returns a signature. Names and
// emails must be non-empty and must not contain '<', '>' or a newline.
func NewSignature(name, email string, when time.Time) (*Signature, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateIdent("name", name); err != nil {
		return nil, err
	}
	if err := validateIdent("email", email); err != nil {
		return nil, err
	}

	_, offset := when.Zone()
	return &Signature{
		Name:  name,
		Email: email,
		When:  when.Truncate(time.Second).In(fixedZone(offset / 60)),
	}, nil
}

// Now is NewSignature with the current local time.
func Now(name, email string) (*Signature, error) {
	return NewSignature(name, email, time.Now())
}

// NewSignatureOffset builds a signature from a unix time and an offset in
// minutes east of UTC.
func NewSignatureOffset(name, email string, unix int64, offsetMinutes int) (*Signature, error) {
	return NewSignature(name, email, time.Unix(unix, 0).In(fixedZone(offsetMinutes)))
}

func validateIdent(field, value string) error {
	if value == "" {
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "new_signature", "%s cannot be empty", field)
	}
	if strings.ContainsAny(value, "<>\n") {
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "new_signature", "%s %q contains '<', '>' or a newline", field, value)
	}
	return nil
}

// ParseSignature reads the Git form "Name <email> 1700000000 +0530".
//
// Parsing is lenient the way Git's is: an empty name is accepted, and a
// missing timezone means UTC. A missing email or an unparsable time is
// INVALID_ARGUMENT.
func ParseSignature(s string) (*Signature, error) {
	lt := strings.IndexByte(s, '<')
	if lt < 0 {
		return nil, invalidSignature(s, "missing '<'")
	}
	gt := strings.IndexByte(s[lt:], '>')
	if gt < 0 {
		return nil, invalidSignature(s, "missing '>'")
	}
	gt += lt

	sig := &Signature{
		Name:  strings.TrimSpace(s[:lt]),
		Email: s[lt+1 : gt],
	}

	fields := strings.Fields(s[gt+1:])
	if len(fields) == 0 {
		return nil, invalidSignature(s, "missing timestamp")
	}
	unix, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, invalidSignature(s, "bad timestamp")
	}

	offset := 0
	if len(fields) > 1 {
		if offset, err = parseOffset(fields[1]); err != nil {
			return nil, invalidSignature(s, "bad timezone")
		}
	}
	sig.When = time.Unix(unix, 0).In(fixedZone(offset))
	return sig, nil
}

func invalidSignature(s, why string) error {
	return errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_signature", "%s in %q", why, s)
}

// parseOffset turns "+0530" into 330 and "-0800" into -480.
func parseOffset(tz string) (int, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return 0, fmt.Errorf("invalid timezone %q", tz)
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return 0, err
	}
	offset := hours*60 + minutes
	if tz[0] == '-' {
		offset = -offset
	}
	return offset, nil
}

func formatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d%02d", sign, minutes/60, minutes%60)
}

func fixedZone(offsetMinutes int) *time.Location {
	return time.FixedZone(formatOffset(offsetMinutes), offsetMinutes*60)
}

// Offset returns the recorded UTC offset in minutes; negative is west.
func (s *Signature) Offset() int {
	_, secs := s.When.Zone()
	return secs / 60
}

// String formats the signature the way it is stored in objects.
func (s *Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), formatOffset(s.Offset()))
}

// Equal compares name, email, instant and offset.
func (s *Signature) Equal(other *Signature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Name == other.Name &&
		s.Email == other.Email &&
		s.When.Unix() == other.When.Unix() &&
		s.Offset() == other.Offset()
}
