package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport_SectionsInOrder(t *testing.T) {
	t.Parallel()
	results := []domain.PlaybookResult{
		{Name: "01-base.yml", Output: "PLAY [all] ***\nok: [h1]"},
		{Name: "02-web.yml", Output: "PLAY [web] ***\nchanged: [h2]\n"},
	}

	got := string(RenderReport(results))

	want := "# Playbook Outputs\n\n" +
		"## Playbook 1: 01-base.yml\n\n```yaml\nPLAY [all] ***\nok: [h1]\n```\n\n" +
		"## Playbook 2: 02-web.yml\n\n```yaml\nPLAY [web] ***\nchanged: [h2]\n\n```\n\n"
	assert.Equal(t, want, got)
	assert.Equal(t, 2, strings.Count(got, "## Playbook "))
}

func TestRenderReport_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "# Playbook Outputs\n\n", string(RenderReport(nil)))
}

func TestRenderReport_OutputWithBackticks(t *testing.T) {
	t.Parallel()
	output := "msg: |\n  ```\n  nested fence\n  ```"
	got := string(RenderReport([]domain.PlaybookResult{{Name: "p.yml", Output: output}}))

	assert.Contains(t, got, "````yaml\n"+output+"\n````\n")
}

func TestWriteReport_Overwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out", "report.md")

	require.NoError(t, WriteReport(path, []domain.PlaybookResult{{Name: "a.yml", Output: "first"}}))
	require.NoError(t, WriteReport(path, []domain.PlaybookResult{{Name: "b.yml", Output: "second"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "first")
	assert.Contains(t, string(data), "## Playbook 1: b.yml")
}

func TestWriteReport_IOError(t *testing.T) {
	t.Parallel()
	err := WriteReport(t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}
