package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/credentials"
	"github.com/stretchr/testify/require"
)

// writeScript 写入可执行的 sh 脚本，用于替代 terraform / ansible-playbook
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func testCredentialEnv() map[string]string {
	return map[string]string{
		credentials.EnvSubscriptionID: "sub-0000",
		credentials.EnvClientID:       "client-1111",
		credentials.EnvClientSecret:   "secret-2222",
		credentials.EnvTenantID:       "tenant-3333",
		credentials.EnvPublicKeyPath:  "/keys/id_rsa",
		credentials.EnvAnsibleUser:    "opuser",
	}
}

func testCredentials(t *testing.T) *credentials.CredentialSet {
	t.Helper()
	set, err := credentials.Validate(credentials.RequiredNames, credentials.MapLookup(testCredentialEnv()))
	require.NoError(t, err)
	return set
}

// testConfig 返回以临时目录为根的配置
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		WorkDir: root,
		RunDir:  filepath.Join(root, "runs"),
		Terraform: config.TerraformConfig{
			ExecPath: "terraform",
			WorkDir:  filepath.Join(root, "terraform_configuration"),
		},
		Ansible: config.AnsibleConfig{
			ExecPath:      "ansible-playbook",
			WorkDir:       filepath.Join(root, "ansible_configuration"),
			PlaybookDir:   filepath.Join(root, "ansible_configuration", "playbooks"),
			InventoryFile: filepath.Join(root, "ansible_configuration", "hosts.ini"),
		},
		Report: config.ReportConfig{Path: filepath.Join(root, "playbook_outputs.md")},
	}
	for _, dir := range []string{cfg.Terraform.WorkDir, cfg.Ansible.PlaybookDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return cfg
}

// chdir 切换工作目录，测试结束后恢复；调用方不能使用 t.Parallel
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
