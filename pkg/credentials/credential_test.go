package credentials

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

func newKey(t *testing.T) (ed25519.PrivateKey, ssh.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return priv, sshPub
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "none", Type(0).String())
	assert.Equal(t, "ssh-key|ssh-agent", (SSHKey | SSHAgent).String())
	assert.True(t, AnySSH.Allows(SSHAgent))
	assert.False(t, AnySSH.Allows(UserPassPlaintext))
	assert.False(t, Any.Allows(0))
}

func TestNewSSHKey(t *testing.T) {
	priv, pub := newKey(t)

	block, err := ssh.MarshalPrivateKey(priv, "test")
	require.NoError(t, err)
	c, err := NewSSHKey("", pem.EncodeToMemory(block), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSSHUser, c.Username())
	assert.Equal(t, SSHKey, c.Type())
	assert.Equal(t, pub.Marshal(), c.Signer.PublicKey().Marshal())
	m, err := c.AuthMethod()
	require.NoError(t, err)
	assert.NotNil(t, m)

	encrypted, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte("s3cret"))
	require.NoError(t, err)
	data := pem.EncodeToMemory(encrypted)

	_, err = NewSSHKey("deploy", data, "")
	assert.True(t, errs.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "no passphrase")

	_, err = NewSSHKey("deploy", data, "wrong")
	assert.True(t, errs.IsInvalidArgument(err))

	c, err = NewSSHKey("deploy", data, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "deploy", c.Username())

	_, err = NewSSHKey("", []byte("not a key"), "")
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestNewSSHKeyFromFile(t *testing.T) {
	priv, _ := newKey(t)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, ".ssh/id_ed25519", pem.EncodeToMemory(block), 0o600))

	c, err := NewSSHKeyFromFile(fs, "git", ".ssh/id_ed25519", "")
	require.NoError(t, err)
	assert.Equal(t, "git", c.Username())

	_, err = NewSSHKeyFromFile(fs, "git", ".ssh/missing", "")
	assert.True(t, errs.IsStorage(err))
}

func TestAgentCredential(t *testing.T) {
	priv, pub := newKey(t)
	keyring := agent.NewKeyring()
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: priv}))

	c := &AgentCredential{User: "git", Agent: keyring}
	signers, err := c.Signers()
	require.NoError(t, err)
	require.Len(t, signers, 1)
	assert.Equal(t, pub.Marshal(), signers[0].PublicKey().Marshal())

	m, err := c.AuthMethod()
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.NoError(t, c.Close())
}

func TestInteractiveAndUserPass(t *testing.T) {
	ic := &InteractiveCredential{User: "git"}
	_, err := ic.AuthMethod()
	assert.True(t, errs.IsInvalidArgument(err))

	ic.Challenge = func(string, string, []string, []bool) ([]string, error) { return nil, nil }
	m, err := ic.AuthMethod()
	require.NoError(t, err)
	assert.NotNil(t, m)

	up := &UserPass{User: "ada", Password: "pw"}
	assert.Equal(t, UserPassPlaintext, up.Type())
	_, err = up.AuthMethod()
	assert.NoError(t, err)

	var _ SSHCredential = up
	var _ SSHCredential = ic
	var _ SSHCredential = &AgentCredential{}
	var _ SSHCredential = &SSHKeyCredential{}
	var _ Credential = DefaultCredential{}
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	p := StaticProvider{Credential: &UserPass{User: "ada", Password: "pw"}}

	c, err := p.Credentials(ctx, "https://example.com/r.git", "", UserPassPlaintext|SSHKey)
	require.NoError(t, err)
	assert.Equal(t, "ada", c.Username())

	_, err = p.Credentials(ctx, "ssh://git@example.com/r.git", "git", AnySSH)
	assert.True(t, errs.IsUnsupported(err))

	_, err = StaticProvider{}.Credentials(ctx, "x", "", Any)
	assert.True(t, errs.IsUnsupported(err))
}

func TestChainProvider(t *testing.T) {
	ctx := context.Background()
	var calls []string
	declining := ProviderFunc(func(context.Context, string, string, Type) (Credential, error) {
		calls = append(calls, "declining")
		return nil, errs.New(pkgName, errs.CodeUnsupported, "test", "", nil)
	})
	wrongType := ProviderFunc(func(context.Context, string, string, Type) (Credential, error) {
		calls = append(calls, "wrong")
		return DefaultCredential{}, nil
	})
	keyUser := ProviderFunc(func(_ context.Context, _ string, user string, _ Type) (Credential, error) {
		calls = append(calls, "userpass")
		return &UserPass{User: user}, nil
	})

	chain := NewChain(declining, wrongType, keyUser)
	c, err := chain.Credentials(ctx, "https://ada@example.com/r.git", "ada", UserPassPlaintext)
	require.NoError(t, err)
	assert.Equal(t, "ada", c.Username())
	assert.Equal(t, []string{"declining", "wrong", "userpass"}, calls)

	_, err = NewChain(declining).Credentials(ctx, "https://example.com", "", Any)
	assert.True(t, errs.IsUnsupported(err))

	boom := errors.New("boom")
	failing := ProviderFunc(func(context.Context, string, string, Type) (Credential, error) { return nil, boom })
	_, err = NewChain(failing, keyUser).Credentials(ctx, "https://example.com", "", Any)
	assert.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewChain(keyUser).Credentials(cancelled, "https://example.com", "", Any)
	assert.True(t, errs.IsCancelled(err))
}

func TestUsernameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://ada@example.com/r.git":    "ada",
		"https://ada:pw@example.com/r.git": "ada",
		"https://example.com/r.git":        "",
		"ssh://git@example.com:22/r.git":   "git",
		"git@example.com:team/r.git":       "git",
		"example.com:team/r.git":           "",
		"/srv/repos/r.git":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, UsernameFromURL(in), in)
	}
	assert.NotContains(t, redact("https://ada:pw@example.com/r.git"), "pw")
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Report(ctx, nil, TransferProgress{}))

	var seen []TransferProgress
	sink := ProgressFunc(func(p TransferProgress) error {
		seen = append(seen, p)
		if p.ReceivedObjects >= 2 {
			return errors.New("stop")
		}
		return nil
	})
	require.NoError(t, Report(ctx, sink, TransferProgress{TotalObjects: 2, ReceivedObjects: 1}))
	err := Report(ctx, sink, TransferProgress{TotalObjects: 2, ReceivedObjects: 2})
	assert.True(t, errs.IsCancelled(err))
	assert.Len(t, seen, 2)

	done := TransferProgress{TotalObjects: 3, ReceivedObjects: 3, IndexedObjects: 3, TotalDeltas: 1, IndexedDeltas: 1}
	assert.True(t, done.Done())
	assert.False(t, TransferProgress{}.Done())
}
