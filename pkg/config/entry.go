package config

import (
	"math"
	"strconv"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Source strings for entries that do not come from a file.
const (
	CommandLineSource = "command line"
	BuiltinSource     = "builtin"
)

// Entry is one value of a key together with where it was found.
type Entry struct {
	Key   Key
	Value string
	Level Level
	// Source is the file path, CommandLineSource or BuiltinSource.
	Source string
}

// Bool parses the value as a boolean.
func (e Entry) Bool() (bool, error) {
	b, err := ParseBool(e.Value)
	if err != nil {
		return false, invalidValue("bool", e.Key, e.Value, err)
	}
	return b, nil
}

// Int64 parses the value as an integer with an optional k, m or g suffix.
func (e Entry) Int64() (int64, error) {
	n, err := ParseInt(e.Value, 64)
	if err != nil {
		return 0, invalidValue("int", e.Key, e.Value, err)
	}
	return n, nil
}

// Int32 parses the value as a 32-bit integer; values outside the int32
// range are INVALID_ARGUMENT.
func (e Entry) Int32() (int32, error) {
	n, err := ParseInt(e.Value, 32)
	if err != nil {
		return 0, invalidValue("int32", e.Key, e.Value, err)
	}
	return int32(n), nil
}

// ParseBool accepts the spellings git accepts. An empty value is false;
// a key written without "= value" is read as "true" before it gets here.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_bool", "%q is not a boolean", s)
	}
}

// ParseInt parses a decimal integer that fits in bitSize bits. The suffixes
// k, m and g multiply by 1024, 1024² and 1024³.
func ParseInt(s string, bitSize int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errs.New(pkgName, errs.CodeInvalidArgument, "parse_int", "empty value", nil)
	}

	var factor int64 = 1
	switch s[len(s)-1] {
	case 'k', 'K':
		factor = 1 << 10
	case 'm', 'M':
		factor = 1 << 20
	case 'g', 'G':
		factor = 1 << 30
	}
	if factor != 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, errs.New(pkgName, errs.CodeInvalidArgument, "parse_int", "not an integer", err)
	}
	limit := int64(math.MaxInt64)
	if bitSize < 64 {
		limit = int64(1)<<(bitSize-1) - 1
	}
	if n > limit/factor || n < -(limit/factor)-1 {
		return 0, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_int", "%s out of range", s)
	}
	return n * factor, nil
}
