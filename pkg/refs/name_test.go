package refs

import "testing"

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"HEAD", true},
		{"FETCH_HEAD", true},
		{"refs/heads/main", true},
		{"refs/heads/feature/new-thing", true},
		{"refs/tags/v1.0.0", true},
		{"refs/heads/with.dot", true},
		{"", false},
		{"@", false},
		{"main", false},
		{"Head", false},
		{"/refs/heads/main", false},
		{"refs/heads/main/", false},
		{"refs/heads/main.", false},
		{"refs/heads/a..b", false},
		{"refs/heads/a@{1}", false},
		{"refs//heads", false},
		{"refs/heads/.hidden", false},
		{"refs/heads/main.lock", false},
		{"refs/heads/has space", false},
		{"refs/heads/tilde~1", false},
		{"refs/heads/caret^", false},
		{"refs/heads/colon:x", false},
		{"refs/heads/q?", false},
		{"refs/heads/star*", false},
		{"refs/heads/[bracket", false},
		{"refs/heads/back\\slash", false},
		{"refs/heads/ctl\x01", false},
		{"refs/heads/del\x7f", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.valid && err != nil {
				t.Errorf("ValidateName(%q) = %v, want nil", tt.name, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateName(%q) = nil, want error", tt.name)
			}
			if IsValidName(tt.name) != tt.valid {
				t.Errorf("IsValidName(%q) = %v", tt.name, !tt.valid)
			}
		})
	}
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		"refs/heads/main":          "main",
		"refs/tags/v1.0.0":         "v1.0.0",
		"refs/remotes/origin/main": "origin/main",
		"refs/notes/commits":       "notes/commits",
		"HEAD":                     "HEAD",
	}
	for in, want := range tests {
		if got := ShortName(in); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefixedNames(t *testing.T) {
	if got, err := BranchName("feature/x"); err != nil || got != "refs/heads/feature/x" {
		t.Errorf("BranchName() = %q, %v", got, err)
	}
	if got, err := TagName("v1"); err != nil || got != "refs/tags/v1" {
		t.Errorf("TagName() = %q, %v", got, err)
	}
	if got, err := RemoteName("origin", "main"); err != nil || got != "refs/remotes/origin/main" {
		t.Errorf("RemoteName() = %q, %v", got, err)
	}
	for _, bad := range []string{"", "a..b", "x.lock"} {
		if _, err := BranchName(bad); err == nil {
			t.Errorf("BranchName(%q) should fail", bad)
		}
	}
	if _, err := RemoteName("", "main"); err == nil {
		t.Error("RemoteName with empty remote should fail")
	}
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		match   bool
	}{
		{"refs/heads/*", "refs/heads/main", true},
		{"refs/heads/*", "refs/heads/feature/x", true},
		{"refs/heads/*", "refs/tags/v1", false},
		{"heads/*", "refs/heads/main", true},
		{"refs/tags", "refs/tags/v1", true},
		{"refs/tags", "refs/tagsx/v1", false},
		{"refs/heads/ma?n", "refs/heads/main", true},
		{"refs/heads/[mx]ain", "refs/heads/main", true},
		{"refs/heads/[!m]ain", "refs/heads/main", false},
		{"refs/heads/a.b", "refs/heads/aXb", false},
	}
	for _, tt := range tests {
		re, err := compileGlob(tt.pattern)
		if err != nil {
			t.Fatalf("compileGlob(%q) error = %v", tt.pattern, err)
		}
		if got := re.MatchString(tt.name); got != tt.match {
			t.Errorf("glob %q on %q = %v, want %v", tt.pattern, tt.name, got, tt.match)
		}
	}

	if _, err := compileGlob("refs/heads/[oops"); err == nil {
		t.Error("unterminated class should fail")
	}
}
