package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnsible 安装假的 ansible-playbook：记录调用顺序，文件名含 fail 的 playbook 退出码为 2
func fakeAnsible(t *testing.T, cfg *config.Config) (callLog string) {
	t.Helper()
	dir := t.TempDir()
	callLog = filepath.Join(dir, "calls.log")
	cfg.Ansible.ExecPath = writeScript(t, dir, "ansible-playbook", fmt.Sprintf(`name=$(basename "$1")
echo "$name $2 $3" >> %q
case "$name" in
  *fail*) echo "fatal: [h1]: FAILED!"; exit 2 ;;
esac
echo "PLAY [$name] ok"
`, callLog))
	return callLog
}

func writePlaybooks(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("- hosts: all\n  tasks: []\n"), 0644))
	}
}

func TestDiscover_FiltersAndSorts(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	dir := cfg.Ansible.PlaybookDir
	writePlaybooks(t, dir, "b.yaml", "a.yml", "c.yml", "notes.txt", "vars.json", "yml")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "roles.yml"), 0755))

	playbooks, err := NewAnsibleService(cfg).Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, pb := range playbooks {
		names = append(names, pb.Name)
		assert.Equal(t, filepath.Join(dir, pb.Name), pb.Path)
	}
	assert.Equal(t, []string{"a.yml", "b.yaml", "c.yml"}, names)
}

func TestDiscover_MissingDir(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	_, err := NewAnsibleService(cfg).Discover(filepath.Join(cfg.WorkDir, "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestRunAll_CapturesOutputInOrder(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	callLog := fakeAnsible(t, cfg)
	writePlaybooks(t, cfg.Ansible.PlaybookDir, "p1.yml", "p2.yml")

	svc := NewAnsibleServiceWithOutput(cfg, nil, &bytes.Buffer{})
	playbooks, err := svc.Discover(cfg.Ansible.PlaybookDir)
	require.NoError(t, err)

	results, err := svc.RunAll(context.Background(), playbooks, cfg.Ansible.InventoryFile)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1.yml", results[0].Name)
	assert.Equal(t, "PLAY [p1.yml] ok\n", results[0].Output)
	assert.Equal(t, "PLAY [p2.yml] ok\n", results[1].Output)

	assert.Equal(t, []string{
		"p1.yml -i " + cfg.Ansible.InventoryFile,
		"p2.yml -i " + cfg.Ansible.InventoryFile,
	}, readLines(t, callLog))
}

func TestRunAll_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	callLog := fakeAnsible(t, cfg)
	writePlaybooks(t, cfg.Ansible.PlaybookDir, "p1-fail.yml", "p2.yml")

	var echo bytes.Buffer
	svc := NewAnsibleServiceWithOutput(cfg, &echo, &bytes.Buffer{})
	playbooks, err := svc.Discover(cfg.Ansible.PlaybookDir)
	require.NoError(t, err)

	results, err := svc.RunAll(context.Background(), playbooks, cfg.Ansible.InventoryFile)
	require.Error(t, err)
	assert.Empty(t, results)

	var execErr *PlaybookExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "p1-fail.yml", execErr.Playbook)
	assert.Equal(t, 2, execErr.ExitCode)
	assert.True(t, errors.Is(err, domain.ErrExecution))

	// p2 从未被调用
	assert.Equal(t, []string{"p1-fail.yml -i " + cfg.Ansible.InventoryFile}, readLines(t, callLog))
	assert.Contains(t, echo.String(), "FAILED!")
}

func TestRunAll_KeepsResultsBeforeFailure(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	fakeAnsible(t, cfg)
	writePlaybooks(t, cfg.Ansible.PlaybookDir, "a.yml", "b-fail.yml", "c.yml")

	svc := NewAnsibleServiceWithOutput(cfg, nil, &bytes.Buffer{})
	playbooks, err := svc.Discover(cfg.Ansible.PlaybookDir)
	require.NoError(t, err)

	results, err := svc.RunAll(context.Background(), playbooks, cfg.Ansible.InventoryFile)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.yml", results[0].Name)
}

func TestRun_RelativePathsFromWorkDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ansible.ExecPath = writeScript(t, t.TempDir(), "ansible-playbook",
		`test -f "$1" && test -f "$3" || { echo "missing $1 or $3 in $PWD"; exit 4; }
echo "ok $(basename "$1")"
`)
	writePlaybooks(t, cfg.Ansible.PlaybookDir, "site.yml")
	require.NoError(t, WriteInventory(cfg.Ansible.InventoryFile, BuildInventory(nil, testVars)))

	chdir(t, cfg.WorkDir)
	playbook := domain.Playbook{Name: "site.yml", Path: filepath.Join("ansible_configuration", "playbooks", "site.yml")}
	inventory := filepath.Join("ansible_configuration", "hosts.ini")

	results, err := NewAnsibleServiceWithOutput(cfg, nil, &bytes.Buffer{}).
		RunAll(context.Background(), []domain.Playbook{playbook}, inventory)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok site.yml\n", results[0].Output)
}

func TestRun_MissingExecutable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Ansible.ExecPath = filepath.Join(cfg.WorkDir, "no-such-binary")

	_, err := NewAnsibleServiceWithOutput(cfg, nil, &bytes.Buffer{}).
		Run(context.Background(), domain.Playbook{Name: "x.yml", Path: "x.yml"}, "hosts.ini")

	var execErr *PlaybookExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, -1, execErr.ExitCode)
}

func TestInspect(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	path := filepath.Join(cfg.Ansible.PlaybookDir, "site.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Configure web servers
  hosts: web
  tasks: []
- name: Configure databases
  hosts: [db, cache]
  tasks: []
- import_playbook: extra.yml
`), 0644))

	info, err := NewAnsibleService(cfg).Inspect(domain.Playbook{Name: "site.yml", Path: path})
	require.NoError(t, err)
	assert.Equal(t, []domain.PlayInfo{
		{Name: "Configure web servers", Hosts: "web"},
		{Name: "Configure databases", Hosts: "db,cache"},
		{Name: "import_playbook: extra.yml"},
	}, info.Plays)
}

func TestInspect_NotAList(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	path := filepath.Join(cfg.Ansible.PlaybookDir, "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("hosts: all\n"), 0644))

	_, err := NewAnsibleService(cfg).Inspect(domain.Playbook{Name: "bad.yml", Path: path})
	require.Error(t, err)
}
