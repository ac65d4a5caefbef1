package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullEnv() map[string]string {
	return map[string]string{
		EnvSubscriptionID: "sub-0000",
		EnvClientID:       "client-1111",
		EnvClientSecret:   "super-secret-value",
		EnvTenantID:       "tenant-2222",
		EnvPublicKeyPath:  "/keys/id_rsa",
		EnvAnsibleUser:    "opuser",
	}
}

func TestValidate_AllPresent(t *testing.T) {
	t.Parallel()
	set, err := Validate(RequiredNames, MapLookup(fullEnv()))
	require.NoError(t, err)

	items := set.Items()
	require.Len(t, items, len(RequiredNames))
	for i, name := range RequiredNames {
		assert.Equal(t, name, items[i].Name)
	}
	assert.Equal(t, "opuser", set.AnsibleUser())
	assert.Equal(t, "/keys/id_rsa", set.PublicKeyPath())
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	t.Parallel()
	env := fullEnv()
	delete(env, EnvClientID)
	env[EnvAnsibleUser] = ""

	set, err := Validate(RequiredNames, MapLookup(env))
	require.Error(t, err)
	assert.Nil(t, set)

	var missing *MissingCredentialError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{EnvClientID, EnvAnsibleUser}, missing.Names)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.True(t, IsMissing(err))
	assert.Contains(t, err.Error(), EnvClientID)
}

func TestCredentialSet_TerraformEnv(t *testing.T) {
	t.Parallel()
	set, err := Validate(RequiredNames, MapLookup(fullEnv()))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ARM_SUBSCRIPTION_ID=sub-0000",
		"ARM_CLIENT_ID=client-1111",
		"ARM_CLIENT_SECRET=super-secret-value",
		"ARM_TENANT_ID=tenant-2222",
		"TF_VAR_public_key_path=/keys/id_rsa",
	}, set.TerraformEnv())
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "supe**********alue", MaskSecret("super-secret-value"))
	assert.True(t, IsSecret(EnvClientSecret))
	assert.False(t, IsSecret(EnvClientID))
}

func TestChainLookup_FirstNonEmptyWins(t *testing.T) {
	t.Parallel()
	first := MapLookup(map[string]string{"A": "", "B": "from-first"})
	second := MapLookup(map[string]string{"A": "from-second", "B": "ignored"})

	lookup := ChainLookup(first, nil, second)

	v, ok := lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "from-second", v)
	v, _ = lookup("B")
	assert.Equal(t, "from-first", v)
	_, ok = lookup("C")
	assert.False(t, ok)
}

func TestLoadDotenv(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`# azure service principal
ARM_SUBSCRIPTION_ID=sub-0000
ARM_CLIENT_SECRET="quoted#value"
export ANSIBLE_USER=opuser
`), 0600))

	values, err := LoadDotenv(path)
	require.NoError(t, err)
	assert.Equal(t, "sub-0000", values["ARM_SUBSCRIPTION_ID"])
	assert.Equal(t, "quoted#value", values["ARM_CLIENT_SECRET"])
	assert.Equal(t, "opuser", values["ANSIBLE_USER"])
}

func TestLoadDotenv_MissingFile(t *testing.T) {
	t.Parallel()
	values, err := LoadDotenv(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Empty(t, values)
}
