package config

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// newLayeredManager attaches a system, user and repository file in one
// memory filesystem, each setting test.key and one key of its own.
func newLayeredManager(t *testing.T) (*Manager, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	files := map[Level]string{
		SystemLevel:     "etc/gitconfig",
		UserLevel:       "home/.gitconfig",
		RepositoryLevel: "repo/.git/config",
	}
	contents := map[Level]string{
		SystemLevel:     "[test]\n\tkey = system\n\tsystemonly = yes\n",
		UserLevel:       "[test]\n\tkey = user\n[user]\n\tname = Ada\n\temail = ada@example.com\n",
		RepositoryLevel: "[test]\n\tkey = repo\n[remote \"origin\"]\n\turl = https://example.com/r.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n",
	}

	m := NewManager()
	for level, p := range files {
		if err := util.WriteFile(fs, p, []byte(contents[level]), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AddFile(level, fs, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m, fs
}

func TestManagerBuiltinDefaults(t *testing.T) {
	m := NewManager()

	tests := []struct {
		key   string
		value string
	}{
		{"core.repositoryformatversion", "0"},
		{"core.filemode", "true"},
		{"core.bare", "false"},
		{"init.defaultbranch", "master"},
		{"diff.renamelimit", "400"},
		{"blame.minmatch", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			e, err := m.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			if e.Value != tt.value || e.Level != BuiltinLevel || e.Source != BuiltinSource {
				t.Errorf("Get(%q) = %+v, want builtin %q", tt.key, e, tt.value)
			}
		})
	}
}

func TestManagerPrecedence(t *testing.T) {
	m, _ := newLayeredManager(t)

	e, err := m.Get("test.key")
	if err != nil {
		t.Fatal(err)
	}
	if e.Value != "repo" || e.Level != RepositoryLevel || e.Source != "repo/.git/config" {
		t.Errorf("Get(test.key) = %+v, want repository value", e)
	}

	if v, _ := m.GetString("test.systemonly"); v != "yes" {
		t.Errorf("system-only key = %q", v)
	}
	if b, err := m.GetBool("test.systemonly"); err != nil || !b {
		t.Errorf("GetBool(test.systemonly) = %v, %v", b, err)
	}

	if err := m.SetCommandLine("test.key", "cli"); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetString("Test.Key"); v != "cli" {
		t.Errorf("command line override = %q, want cli", v)
	}

	all, err := m.GetAll("test.key")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range all {
		got = append(got, e.Value)
	}
	want := []string{"system", "user", "repo", "cli"}
	if len(got) != len(want) {
		t.Fatalf("GetAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAll()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestManagerNotFound(t *testing.T) {
	m := NewManager()
	if _, err := m.Get("user.name"); !errs.IsNotFound(err) {
		t.Errorf("Get(absent) error = %v, want NOT_FOUND", err)
	}
	if _, err := m.GetInt64("nope.nothing"); !errs.IsNotFound(err) {
		t.Errorf("GetInt64(absent) error = %v, want NOT_FOUND", err)
	}
	if _, err := m.Get("nodot"); !errs.IsInvalidArgument(err) {
		t.Errorf("Get(bad key) error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestManagerSetPersists(t *testing.T) {
	ctx := context.Background()
	m, fs := newLayeredManager(t)

	if err := m.Set(ctx, "core.bare", "true", RepositoryLevel); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := m.Add(ctx, "remote.origin.fetch", "+refs/tags/*:refs/tags/*", RepositoryLevel); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := m.Unset(ctx, "test.key", RepositoryLevel); err != nil {
		t.Fatalf("Unset() error = %v", err)
	}

	fresh := NewManager()
	if _, err := fresh.AddFile(RepositoryLevel, fs, "repo/.git/config"); err != nil {
		t.Fatal(err)
	}
	if err := fresh.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if b, _ := fresh.GetBool("core.bare"); !b {
		t.Error("core.bare was not saved")
	}
	fetch, _ := fresh.GetAll("remote.origin.fetch")
	if len(fetch) != 2 {
		t.Errorf("remote.origin.fetch has %d values, want 2", len(fetch))
	}
	if _, err := fresh.Get("test.key"); !errs.IsNotFound(err) {
		t.Errorf("unset key still readable: %v", err)
	}
}

func TestManagerWriteErrors(t *testing.T) {
	ctx := context.Background()
	m := NewManager()

	if err := m.Set(ctx, "user.name", "x", CommandLineLevel); !errs.IsUnsupported(err) {
		t.Errorf("Set(command line) error = %v, want UNSUPPORTED", err)
	}
	if err := m.Set(ctx, "user.name", "x", UserLevel); !errs.IsNotFound(err) {
		t.Errorf("Set(no file) error = %v, want NOT_FOUND", err)
	}
	if err := m.Set(ctx, "core.bare", "sometimes", UserLevel); !errs.IsInvalidArgument(err) {
		t.Errorf("Set(bad value) error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := m.AddFile(BuiltinLevel, memfs.New(), "x"); !errs.IsInvalidArgument(err) {
		t.Errorf("AddFile(builtin) error = %v", err)
	}

	if _, err := m.AddFile(UserLevel, memfs.New(), "gitconfig"); err != nil {
		t.Fatal(err)
	}
	if err := m.Unset(ctx, "user.name", UserLevel); !errs.IsNotFound(err) {
		t.Errorf("Unset(absent) error = %v, want NOT_FOUND", err)
	}
}

func TestManagerList(t *testing.T) {
	m, _ := newLayeredManager(t)
	entries := m.List()

	byKey := make(map[string]Entry)
	for i, e := range entries {
		if i > 0 && entries[i-1].Key.String() >= e.Key.String() {
			t.Errorf("List() not sorted at %s", e.Key)
		}
		byKey[e.Key.String()] = e
	}
	if byKey["test.key"].Value != "repo" {
		t.Errorf("List() test.key = %+v", byKey["test.key"])
	}
	if byKey["core.bare"].Level != BuiltinLevel {
		t.Errorf("List() core.bare = %+v", byKey["core.bare"])
	}
	if _, ok := byKey["user.email"]; !ok {
		t.Error("List() lacks user.email")
	}
	if got := m.Levels(); len(got) != 3 || got[0] != SystemLevel {
		t.Errorf("Levels() = %v", got)
	}
}

func TestTypedConfig(t *testing.T) {
	m, _ := newLayeredManager(t)
	tc := NewTypedConfig(m)

	if tc.UserName() != "Ada" || tc.UserEmail() != "ada@example.com" {
		t.Errorf("user = %q <%q>", tc.UserName(), tc.UserEmail())
	}
	if tc.DefaultBranch() != "master" || tc.Bare() || !tc.FileMode() {
		t.Error("builtin defaults not applied")
	}
	if tc.DiffContext() != 3 || tc.DiffRenameLimit() != 400 || tc.BlameMinMatch() != 20 {
		t.Error("numeric defaults not applied")
	}
	if tc.RemoteURL("origin") != "https://example.com/r.git" || tc.RemotePushURL("origin") != tc.RemoteURL("origin") {
		t.Errorf("remote url = %q", tc.RemoteURL("origin"))
	}
	if got := tc.RemoteFetch("origin"); len(got) != 1 {
		t.Errorf("RemoteFetch() = %v", got)
	}
	if err := m.SetCommandLine("color.ui", "true"); err != nil {
		t.Fatal(err)
	}
	if tc.ColorUI() != "always" {
		t.Errorf("ColorUI() = %q", tc.ColorUI())
	}
}

func TestManagerGetInt32(t *testing.T) {
	tests := []struct {
		value   string
		want    int32
		invalid bool
	}{
		{value: "42", want: 42},
		{value: "-7", want: -7},
		{value: "1g", want: 1 << 30},
		{value: "2147483647", want: 2147483647},
		{value: "-2147483648", want: -2147483648},
		{value: "2147483648", invalid: true},
		{value: "-2147483649", invalid: true},
		{value: "2g", invalid: true},
		{value: "ten", invalid: true},
	}
	for _, tt := range tests {
		m := NewManager()
		if err := m.SetCommandLine("test.n", tt.value); err != nil {
			t.Fatalf("SetCommandLine(%q) error = %v", tt.value, err)
		}
		got, err := m.GetInt32("test.n")
		if tt.invalid {
			if !errs.IsInvalidArgument(err) {
				t.Errorf("GetInt32(%q) error = %v, want INVALID_ARGUMENT", tt.value, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("GetInt32(%q) = %d, %v, want %d", tt.value, got, err, tt.want)
		}
		// The same value still reads as a 64-bit integer.
		if n, err := m.GetInt64("test.n"); err != nil || n != int64(tt.want) {
			t.Errorf("GetInt64(%q) = %d, %v", tt.value, n, err)
		}
	}

	if _, err := NewManager().GetInt32("test.absent"); !errs.IsNotFound(err) {
		t.Errorf("GetInt32(absent) error = %v, want NOT_FOUND", err)
	}
}
