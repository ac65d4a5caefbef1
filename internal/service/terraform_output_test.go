package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `{
  "resource_group": {"sensitive": false, "type": "string", "value": "rg-demo"},
  "vm_public_ips": {
    "sensitive": false,
    "type": ["object", {}],
    "value": {
      "zeta":  {"hostname": "h1", "ip": "10.0.0.1", "role": "web", "size": "B1s"},
      "alpha": {"hostname": "h2", "ip": "10.0.0.2", "role": "web"},
      "mid":   {"hostname": "h3", "ip": "10.0.0.3", "role": "db"}
    }
  }
}`

func TestParseHostOutputs_KeepsDocumentOrder(t *testing.T) {
	t.Parallel()
	records, err := ParseHostOutputs([]byte(sampleOutput))
	require.NoError(t, err)

	assert.Equal(t, []domain.HostRecord{
		{ID: "zeta", Hostname: "h1", IP: "10.0.0.1", Role: "web"},
		{ID: "alpha", Hostname: "h2", IP: "10.0.0.2", Role: "web"},
		{ID: "mid", Hostname: "h3", IP: "10.0.0.3", Role: "db"},
	}, records)
}

func TestParseHostOutputs_MissingRoleIsEmpty(t *testing.T) {
	t.Parallel()
	records, err := ParseHostOutputs([]byte(`{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": "10.0.0.1"}}}}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Role)
}

func TestParseHostOutputs_EmptyValue(t *testing.T) {
	t.Parallel()
	records, err := ParseHostOutputs([]byte(`{"vm_public_ips": {"value": {}}}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseHostOutputs_ShapeErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"not json":         `terraform exploded`,
		"top-level array":  `[]`,
		"missing output":   `{"other": {"value": {}}}`,
		"missing value":    `{"vm_public_ips": {"sensitive": false}}`,
		"value is list":    `{"vm_public_ips": {"value": [{"hostname": "h1", "ip": "10.0.0.1"}]}}`,
		"value is string":  `{"vm_public_ips": {"value": "10.0.0.1"}}`,
		"record is string": `{"vm_public_ips": {"value": {"a": "10.0.0.1"}}}`,
		"record is null":   `{"vm_public_ips": {"value": {"a": null}}}`,
		"missing hostname": `{"vm_public_ips": {"value": {"a": {"ip": "10.0.0.1", "role": "web"}}}}`,
		"missing ip":       `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "role": "web"}}}}`,
		"ip not string":    `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": 10, "role": "web"}}}}`,
		"duplicate id":     `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": "10.0.0.1"}, "a": {"hostname": "h2", "ip": "10.0.0.2"}}}}`,
		"newline hostname": `{"vm_public_ips": {"value": {"a": {"hostname": "h1\n[all:vars]\nansible_user=root", "ip": "10.0.0.1"}}}}`,
		"space in ip":      `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": "10.0.0.1 x=1"}}}}`,
		"bracket in role":  `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": "10.0.0.1", "role": "web]"}}}}`,
		"tab in role":      `{"vm_public_ips": {"value": {"a": {"hostname": "h1", "ip": "10.0.0.1", "role": "we\tb"}}}}`,
	}
	for name, input := range tests {
		name, input := name, input
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseHostOutputs([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrProvision), "got %v", err)
		})
	}
}

func TestParseHostOutputsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "output.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleOutput), 0644))

	records, err := ParseHostOutputsFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = ParseHostOutputsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, domain.ErrIO))
}
