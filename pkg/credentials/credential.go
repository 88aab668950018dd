// Package credentials supplies authentication for remote URLs and carries
// transfer progress back to callers. Transports ask a Provider for a
// Credential of one of the types they can use.
package credentials

import (
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

const pkgName = "credentials"

// DefaultSSHUser is used for SSH credentials when neither the caller nor
// the URL names a user.
const DefaultSSHUser = "git"

// Type is a set of credential kinds.
type Type uint

const (
	// UserPassPlaintext is a username and password.
	UserPassPlaintext Type = 1 << iota
	// SSHKey is a private key held in memory.
	SSHKey
	// SSHAgent signs with keys held by a running ssh-agent.
	SSHAgent
	// SSHInteractive answers keyboard-interactive challenges.
	SSHInteractive
	// Default asks the transport to use whatever the platform provides.
	Default

	AnySSH = SSHKey | SSHAgent | SSHInteractive
	Any    = UserPassPlaintext | AnySSH | Default
)

func (t Type) String() string {
	names := []struct {
		t    Type
		name string
	}{
		{UserPassPlaintext, "userpass"},
		{SSHKey, "ssh-key"},
		{SSHAgent, "ssh-agent"},
		{SSHInteractive, "ssh-interactive"},
		{Default, "default"},
	}
	var parts []string
	for _, n := range names {
		if t&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Allows reports whether every kind in o is in t.
func (t Type) Allows(o Type) bool { return o != 0 && t&o == o }

// Credential is something a transport can authenticate with.
type Credential interface {
	Type() Type
	Username() string
}

// SSHCredential is a Credential usable on an SSH connection.
type SSHCredential interface {
	Credential
	AuthMethod() (ssh.AuthMethod, error)
}

// UserPass is a plaintext username and password. Over SSH it is sent as
// password authentication.
type UserPass struct {
	User     string
	Password string
}

func (c *UserPass) Type() Type       { return UserPassPlaintext }
func (c *UserPass) Username() string { return c.User }

func (c *UserPass) AuthMethod() (ssh.AuthMethod, error) {
	return ssh.Password(c.Password), nil
}

// SSHKeyCredential holds a parsed private key.
type SSHKeyCredential struct {
	User   string
	Signer ssh.Signer
}

// NewSSHKey parses a PEM encoded private key, decrypting it with
// passphrase when one is given. Keys that do not parse are
// INVALID_ARGUMENT.
func NewSSHKey(user string, pemBytes []byte, passphrase string) (*SSHKeyCredential, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pemBytes)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		msg := "cannot parse private key"
		if errors.As(err, &missing) {
			msg = "private key is encrypted and no passphrase was given"
		}
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "ssh_key", msg, err)
	}
	if user == "" {
		user = DefaultSSHUser
	}
	return &SSHKeyCredential{User: user, Signer: signer}, nil
}

// NewSSHKeyFromFile reads the key at path in fs and parses it with NewSSHKey.
func NewSSHKeyFromFile(fs billy.Filesystem, user, path, passphrase string) (*SSHKeyCredential, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeStorage, "ssh_key", "", err).WithContext("path", path)
	}
	return NewSSHKey(user, data, passphrase)
}

func (c *SSHKeyCredential) Type() Type       { return SSHKey }
func (c *SSHKeyCredential) Username() string { return c.User }

func (c *SSHKeyCredential) AuthMethod() (ssh.AuthMethod, error) {
	return ssh.PublicKeys(c.Signer), nil
}

// AgentCredential signs with the keys of an ssh-agent. Agent may be set to
// use a specific agent; otherwise the system agent is dialed on first use.
type AgentCredential struct {
	User  string
	Agent agent.Agent

	conn net.Conn
}

func (c *AgentCredential) Type() Type       { return SSHAgent }
func (c *AgentCredential) Username() string { return c.User }

// Signers lists the agent's keys. Without a reachable agent it is
// UNSUPPORTED.
func (c *AgentCredential) Signers() ([]ssh.Signer, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}
	signers, err := c.Agent.Signers()
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeStorage, "agent_signers", "", err)
	}
	return signers, nil
}

func (c *AgentCredential) AuthMethod() (ssh.AuthMethod, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}
	return ssh.PublicKeysCallback(c.Agent.Signers), nil
}

func (c *AgentCredential) connect() error {
	if c.Agent != nil {
		return nil
	}
	if !sshagent.Available() {
		return errs.New(pkgName, errs.CodeUnsupported, "agent", "no ssh-agent available", nil)
	}
	a, conn, err := sshagent.New()
	if err != nil {
		return errs.New(pkgName, errs.CodeUnsupported, "agent", "cannot reach ssh-agent", err)
	}
	c.Agent, c.conn = a, conn
	return nil
}

// Close releases the agent connection, if one was dialed.
func (c *AgentCredential) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.Agent = nil
	return err
}

// InteractiveCredential answers keyboard-interactive prompts with Challenge.
type InteractiveCredential struct {
	User      string
	Challenge ssh.KeyboardInteractiveChallenge
}

func (c *InteractiveCredential) Type() Type       { return SSHInteractive }
func (c *InteractiveCredential) Username() string { return c.User }

func (c *InteractiveCredential) AuthMethod() (ssh.AuthMethod, error) {
	if c.Challenge == nil {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "interactive", "no challenge callback", nil)
	}
	return ssh.KeyboardInteractive(c.Challenge), nil
}

// DefaultCredential defers to the transport's platform authentication.
type DefaultCredential struct{}

func (DefaultCredential) Type() Type       { return Default }
func (DefaultCredential) Username() string { return "" }
