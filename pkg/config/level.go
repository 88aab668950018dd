package config

import errs "github.com/utkarsh5026/gitcore/pkg/common/err"

// Level is where a configuration value comes from. Higher levels override
// lower ones.
type Level int

const (
	// BuiltinLevel holds the hardcoded defaults.
	BuiltinLevel Level = iota

	// SystemLevel is the machine wide file, /etc/gitconfig.
	SystemLevel

	// UserLevel is the per user file, ~/.gitconfig.
	UserLevel

	// RepositoryLevel is the repository's own .git/config.
	RepositoryLevel

	// CommandLineLevel holds -c overrides for a single invocation.
	CommandLineLevel
)

func (l Level) String() string {
	switch l {
	case BuiltinLevel:
		return "builtin"
	case SystemLevel:
		return "system"
	case UserLevel:
		return "global"
	case RepositoryLevel:
		return "local"
	case CommandLineLevel:
		return "command"
	default:
		return "unknown"
	}
}

// IsValid reports whether l is one of the defined levels.
func (l Level) IsValid() bool {
	return l >= BuiltinLevel && l <= CommandLineLevel
}

// CanWrite reports whether l is backed by a file.
func (l Level) CanWrite() bool {
	return l == SystemLevel || l == UserLevel || l == RepositoryLevel
}

// ParseLevel converts a level name, as printed by String, back to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "builtin":
		return BuiltinLevel, nil
	case "system":
		return SystemLevel, nil
	case "global":
		return UserLevel, nil
	case "local":
		return RepositoryLevel, nil
	case "command":
		return CommandLineLevel, nil
	default:
		return 0, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_level", "unknown level %q", s)
	}
}
