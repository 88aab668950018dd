package credentials

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
)

// Provider supplies a credential for a remote URL. allowed is the set of
// types the transport can use; a provider that has none of them returns
// UNSUPPORTED.
type Provider interface {
	Credentials(ctx context.Context, remoteURL, usernameFromURL string, allowed Type) (Credential, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, remoteURL, usernameFromURL string, allowed Type) (Credential, error)

func (f ProviderFunc) Credentials(ctx context.Context, remoteURL, usernameFromURL string, allowed Type) (Credential, error) {
	return f(ctx, remoteURL, usernameFromURL, allowed)
}

// StaticProvider always offers the same credential.
type StaticProvider struct {
	Credential Credential
}

func (p StaticProvider) Credentials(ctx context.Context, remoteURL, _ string, allowed Type) (Credential, error) {
	if err := errs.CheckContext(ctx, pkgName, "credentials"); err != nil {
		return nil, err
	}
	if p.Credential == nil || !allowed.Allows(p.Credential.Type()) {
		return nil, unsupported(remoteURL, allowed)
	}
	return p.Credential, nil
}

// AgentProvider offers the system ssh-agent when SSHAgent is allowed. The
// user is the one from the URL, falling back to DefaultSSHUser.
type AgentProvider struct{}

func (AgentProvider) Credentials(ctx context.Context, remoteURL, usernameFromURL string, allowed Type) (Credential, error) {
	if err := errs.CheckContext(ctx, pkgName, "credentials"); err != nil {
		return nil, err
	}
	if !allowed.Allows(SSHAgent) {
		return nil, unsupported(remoteURL, allowed)
	}
	user := usernameFromURL
	if user == "" {
		user = DefaultSSHUser
	}
	c := &AgentCredential{User: user}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// ChainProvider asks each provider in turn and returns the first
// credential. Providers answering UNSUPPORTED are skipped; any other error
// stops the chain.
type ChainProvider struct {
	Providers []Provider
	Logger    *slog.Logger
}

// NewChain returns a ChainProvider over providers.
func NewChain(providers ...Provider) *ChainProvider {
	return &ChainProvider{Providers: providers}
}

func (c *ChainProvider) Credentials(ctx context.Context, remoteURL, usernameFromURL string, allowed Type) (Credential, error) {
	log := logger.Component(c.Logger, pkgName)
	for i, p := range c.Providers {
		if err := errs.CheckContext(ctx, pkgName, "credentials"); err != nil {
			return nil, err
		}
		cred, err := p.Credentials(ctx, remoteURL, usernameFromURL, allowed)
		if errs.IsUnsupported(err) {
			log.Debug("provider declined", "index", i, "url", redact(remoteURL))
			continue
		}
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "credentials")
		}
		if !allowed.Allows(cred.Type()) {
			log.Debug("provider returned a disallowed type", "index", i, "type", cred.Type().String())
			continue
		}
		log.Debug("credential found", "index", i, "type", cred.Type().String())
		return cred, nil
	}
	return nil, unsupported(remoteURL, allowed)
}

// UsernameFromURL extracts the user of an https/ssh URL or of an scp-like
// "user@host:path" address. It returns "" when there is none.
func UsernameFromURL(remote string) string {
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil || u.User == nil {
			return ""
		}
		return u.User.Username()
	}
	host, _, ok := strings.Cut(remote, ":")
	if !ok {
		return ""
	}
	if user, _, ok := strings.Cut(host, "@"); ok {
		return user
	}
	return ""
}

// redact drops any password embedded in remote before it is logged.
func redact(remote string) string {
	u, err := url.Parse(remote)
	if err != nil || u.User == nil {
		return remote
	}
	return u.Redacted()
}

func unsupported(remoteURL string, allowed Type) error {
	return errs.New(pkgName, errs.CodeUnsupported, "credentials", "no credential of an allowed type", nil).
		WithContext("url", redact(remoteURL)).
		WithContext("allowed", allowed.String())
}
