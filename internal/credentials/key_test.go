package credentials

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeKeyPair(t *testing.T) (pubPath, privPath, fingerprint string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	dir := t.TempDir()
	pubPath = filepath.Join(dir, "id_ed25519.pub")
	privPath = filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(pubPath, ssh.MarshalAuthorizedKey(sshPub), 0644))
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(block), 0600))
	return pubPath, privPath, ssh.FingerprintSHA256(sshPub)
}

func TestInspectKey(t *testing.T) {
	t.Parallel()
	pubPath, privPath, fp := writeKeyPair(t)

	info, err := InspectKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, ssh.KeyAlgoED25519, info.Type)
	assert.Equal(t, fp, info.Fingerprint)
	assert.False(t, info.Private)

	info, err = InspectKey(privPath)
	require.NoError(t, err)
	assert.Equal(t, fp, info.Fingerprint)
	assert.True(t, info.Private)
}

func TestInspectKey_Invalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "garbage")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0600))

	_, err := InspectKey(path)
	require.Error(t, err)

	_, err = InspectKey(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
