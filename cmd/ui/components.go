package ui

import (
	"fmt"
	"strings"
)

// Status renders a status letter (A, D, M, R, C, T or ?) followed by path.
func Status(letter byte, path string) string {
	style, ok := statusStyles[letter]
	if !ok {
		return fmt.Sprintf("  %c  %s", letter, path)
	}
	return fmt.Sprintf("  %s  %s", style.Render(string(letter)), style.Render(path))
}

// SuccessMessage is a check mark, message and optional highlighted details.
func SuccessMessage(message string, details ...string) string {
	parts := []string{Green(IconCheck), Green(message)}
	for _, d := range details {
		parts = append(parts, Blue(d))
	}
	return strings.Join(parts, " ")
}

// ErrorMessage renders err for stderr.
func ErrorMessage(err error) string {
	return fmt.Sprintf("%s %s", Red(IconCross), Red(err.Error()))
}

func WarningMessage(message string) string { return Yellow(message) }

// BranchInfo is the "on branch" line; detached heads show the short id.
func BranchInfo(branch string, detached bool) string {
	if detached {
		return fmt.Sprintf("%s HEAD detached at %s", Cyan(IconBranch), Yellow(branch))
	}
	return fmt.Sprintf("%s On branch %s", Cyan(IconBranch), Blue(branch))
}

// CommitInfo is what the detailed log shows for one commit.
type CommitInfo struct {
	Hash    string
	Refs    []string
	Author  string
	Date    string
	Message string
}

// FormatCommit renders a commit in a rounded box.
func FormatCommit(c CommitInfo) string {
	var b strings.Builder
	b.WriteString(Yellow(IconCommit + " " + c.Hash))
	if len(c.Refs) > 0 {
		b.WriteString(" " + Cyan("("+strings.Join(c.Refs, ", ")+")"))
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s %s\n", Cyan(IconAuthor), Cyan(c.Author))
	fmt.Fprintf(&b, "%s %s\n\n", Magenta(IconDate), Magenta(c.Date))
	b.WriteString(strings.TrimRight(c.Message, "\n"))
	return CommitBox(b.String())
}

// Separator sits between two boxed commits.
func Separator() string { return Dim("  " + IconSeparator) }

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
