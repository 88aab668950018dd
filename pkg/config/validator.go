package config

import (
	"errors"
	"net/mail"
	"net/url"
	"slices"
	"strings"

	"github.com/utkarsh5026/gitcore/pkg/refs"
)

// Validator checks values of well-known keys before they are written.
// Unknown keys are accepted as they are.
type Validator struct{}

// Validate returns INVALID_ARGUMENT when value is not acceptable for k.
func (v Validator) Validate(k Key, value string) error {
	var err error
	switch k.Section {
	case "core":
		err = v.core(k.Name, value)
	case "user":
		err = v.user(k.Name, value)
	case "remote":
		err = v.remote(k.Name, value)
	case "branch":
		err = v.branch(k.Name, value)
	case "color":
		if k.Name == "ui" {
			err = oneOf(value, "auto", "always", "never", "true", "false")
		}
	case "diff":
		err = v.diff(k.Name, value)
	case "blame":
		if k.Name == "minmatch" {
			err = nonNegative(value)
		}
	case "init":
		if k.Name == "defaultbranch" {
			_, err = refs.BranchName(value)
		}
	}
	if err != nil {
		return invalidValue("validate", k, value, err)
	}
	return nil
}

func (v Validator) core(name, value string) error {
	switch name {
	case "repositoryformatversion":
		return oneOf(value, "0", "1")
	case "filemode", "bare", "logallrefupdates", "ignorecase", "symlinks":
		_, err := ParseBool(value)
		return err
	case "autocrlf":
		return oneOf(value, "true", "false", "input")
	}
	return nil
}

func (v Validator) user(name, value string) error {
	switch name {
	case "email":
		if strings.TrimSpace(value) == "" {
			return errors.New("email cannot be empty")
		}
		if strings.ContainsAny(value, "<>\n") {
			return errors.New("email cannot contain angle brackets or newlines")
		}
		// Checked as a bare addr-spec.
		_, err := mail.ParseAddress("<" + value + ">")
		return err
	case "name":
		if strings.TrimSpace(value) == "" {
			return errors.New("name cannot be empty")
		}
		if strings.ContainsAny(value, "<>\n") {
			return errors.New("name cannot contain angle brackets or newlines")
		}
	}
	return nil
}

func (v Validator) remote(name, value string) error {
	switch name {
	case "url", "pushurl":
		return validURL(value)
	case "fetch", "push":
		return validRefspec(value)
	}
	return nil
}

func (v Validator) branch(name, value string) error {
	switch name {
	case "remote":
		if strings.TrimSpace(value) == "" {
			return errors.New("remote name cannot be empty")
		}
	case "merge":
		return refs.ValidateName(value)
	case "rebase":
		_, err := ParseBool(value)
		return err
	}
	return nil
}

func (v Validator) diff(name, value string) error {
	switch name {
	case "renames":
		if oneOf(value, "copies", "copy") == nil {
			return nil
		}
		_, err := ParseBool(value)
		return err
	case "renamelimit", "context":
		return nonNegative(value)
	}
	return nil
}

func validURL(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("url cannot be empty")
	}
	// Local paths and scp-like "host:path" remotes are not URLs.
	if strings.HasPrefix(value, "/") || strings.HasPrefix(value, ".") || !strings.Contains(value, "://") {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return errors.New("url has no scheme")
	}
	return nil
}

// validRefspec accepts [+]<src>[:<dst>] where each side is empty, a full
// ref name or a pattern with one "*".
func validRefspec(value string) error {
	spec := strings.TrimPrefix(value, "+")
	if spec == "" {
		return errors.New("refspec cannot be empty")
	}
	src, dst, _ := strings.Cut(spec, ":")
	if strings.Count(src, "*") != strings.Count(dst, "*") && dst != "" {
		return errors.New("refspec patterns must match on both sides")
	}
	for _, side := range []string{src, dst} {
		if side == "" || strings.Contains(side, "*") {
			continue
		}
		if !strings.HasPrefix(side, "refs/") && side != "HEAD" {
			return errors.New("refspec sides must be full ref names")
		}
	}
	return nil
}

func oneOf(value string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(strings.TrimSpace(value))) {
		return nil
	}
	return errors.New("must be one of " + strings.Join(allowed, ", "))
}

func nonNegative(value string) error {
	n, err := ParseInt(value, 32)
	if err != nil {
		return err
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
