package config

// TypedConfig reads well-known keys with their types and defaults. Values
// that are missing or do not parse fall back to the default.
type TypedConfig struct {
	manager *Manager
}

// NewTypedConfig wraps m.
func NewTypedConfig(m *Manager) *TypedConfig {
	return &TypedConfig{manager: m}
}

func (tc *TypedConfig) str(key, def string) string {
	v, err := tc.manager.GetString(key)
	if err != nil {
		return def
	}
	return v
}

func (tc *TypedConfig) boolean(key string, def bool) bool {
	v, err := tc.manager.GetBool(key)
	if err != nil {
		return def
	}
	return v
}

func (tc *TypedConfig) integer(key string, def int) int {
	v, err := tc.manager.GetInt64(key)
	if err != nil {
		return def
	}
	return int(v)
}

// Core

func (tc *TypedConfig) RepositoryFormatVersion() int {
	return tc.integer("core.repositoryformatversion", 0)
}

func (tc *TypedConfig) Bare() bool     { return tc.boolean("core.bare", false) }
func (tc *TypedConfig) FileMode() bool { return tc.boolean("core.filemode", true) }

func (tc *TypedConfig) LogAllRefUpdates() bool {
	return tc.boolean("core.logallrefupdates", true)
}

// User

func (tc *TypedConfig) UserName() string  { return tc.str("user.name", "") }
func (tc *TypedConfig) UserEmail() string { return tc.str("user.email", "") }

// DefaultBranch is the branch HEAD points at in a new repository.
func (tc *TypedConfig) DefaultBranch() string {
	return tc.str("init.defaultbranch", "master")
}

// ColorUI is one of auto, always or never; booleans map to always and never.
func (tc *TypedConfig) ColorUI() string {
	v := tc.str("color.ui", "auto")
	if b, err := ParseBool(v); err == nil && v != "" {
		if b {
			return "always"
		}
		return "never"
	}
	return v
}

// Diff and blame

func (tc *TypedConfig) DiffContext() int     { return tc.integer("diff.context", 3) }
func (tc *TypedConfig) DiffRenameLimit() int { return tc.integer("diff.renamelimit", DefaultRenameLimit) }
func (tc *TypedConfig) BlameMinMatch() int   { return tc.integer("blame.minmatch", 20) }

// Remotes and branches

func (tc *TypedConfig) RemoteURL(remote string) string {
	return tc.str("remote."+remote+".url", "")
}

// RemotePushURL falls back to the fetch URL.
func (tc *TypedConfig) RemotePushURL(remote string) string {
	return tc.str("remote."+remote+".pushurl", tc.RemoteURL(remote))
}

// RemoteFetch returns every fetch refspec of remote.
func (tc *TypedConfig) RemoteFetch(remote string) []string {
	entries, err := tc.manager.GetAll("remote." + remote + ".fetch")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

func (tc *TypedConfig) BranchRemote(branch string) string {
	return tc.str("branch."+branch+".remote", "")
}

func (tc *TypedConfig) BranchMerge(branch string) string {
	return tc.str("branch."+branch+".merge", "")
}
