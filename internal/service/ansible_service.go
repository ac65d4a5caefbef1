package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/lucksec/infrabridge/internal/logger"
	"gopkg.in/yaml.v3"
)

// PlaybookExtensions 被识别为 playbook 的文件扩展名
var PlaybookExtensions = []string{".yml", ".yaml"}

// AnsibleService Ansible 操作服务接口
type AnsibleService interface {
	// Discover 列出目录中的 playbook，按文件名字典序排列
	Discover(dir string) ([]domain.Playbook, error)

	// Inspect 解析 playbook，列出其中的 play
	Inspect(playbook domain.Playbook) (*domain.PlaybookInfo, error)

	// Run 针对主机清单执行单个 playbook
	Run(ctx context.Context, playbook domain.Playbook, inventoryPath string) (domain.PlaybookResult, error)

	// RunAll 依次执行全部 playbook，第一个失败即停止
	// 返回失败前已完成的结果
	RunAll(ctx context.Context, playbooks []domain.Playbook, inventoryPath string) ([]domain.PlaybookResult, error)
}

// ansibleService Ansible 服务实现
type ansibleService struct {
	config *config.Config
	echo   io.Writer // 可选：同时回显 playbook 输出
	stderr io.Writer
}

// NewAnsibleService 创建 Ansible 服务实例
func NewAnsibleService(cfg *config.Config) AnsibleService {
	return NewAnsibleServiceWithOutput(cfg, os.Stdout, os.Stderr)
}

// NewAnsibleServiceWithOutput 创建 Ansible 服务实例并指定回显和错误输出，echo 可为 nil
func NewAnsibleServiceWithOutput(cfg *config.Config, echo, stderr io.Writer) AnsibleService {
	return &ansibleService{
		config: cfg,
		echo:   echo,
		stderr: stderr,
	}
}

// Discover 列出 playbook
func (s *ansibleService) Discover(dir string) ([]domain.Playbook, error) {
	// os.ReadDir 已按文件名排序
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("读取 playbook 目录", dir, err)
	}

	var playbooks []domain.Playbook
	for _, entry := range entries {
		if !isPlaybookFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// 跟随符号链接，排除目录
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		playbooks = append(playbooks, domain.Playbook{Name: entry.Name(), Path: path})
	}

	logger.GetLogger().Debug("发现 %d 个 playbook: dir=%s", len(playbooks), dir)
	return playbooks, nil
}

func isPlaybookFile(name string) bool {
	for _, ext := range PlaybookExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// playbook 中单个 play 的字段，只解析展示需要的部分
type play struct {
	Name           string    `yaml:"name"`
	Hosts          yaml.Node `yaml:"hosts"`
	ImportPlaybook string    `yaml:"import_playbook"`
}

// Inspect 解析 playbook
func (s *ansibleService) Inspect(playbook domain.Playbook) (*domain.PlaybookInfo, error) {
	data, err := os.ReadFile(playbook.Path)
	if err != nil {
		return nil, ioError("读取 playbook", playbook.Path, err)
	}

	var plays []play
	if err := yaml.Unmarshal(data, &plays); err != nil {
		return nil, fmt.Errorf("playbook %s 不是有效的 play 列表: %w", playbook.Name, err)
	}

	info := &domain.PlaybookInfo{Playbook: playbook}
	for _, p := range plays {
		pi := domain.PlayInfo{Name: p.Name, Hosts: hostsPattern(&p.Hosts)}
		if p.ImportPlaybook != "" {
			pi.Name = "import_playbook: " + p.ImportPlaybook
		}
		info.Plays = append(info.Plays, pi)
	}
	return info, nil
}

// hostsPattern hosts 可以是字符串或列表
func hostsPattern(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			parts = append(parts, c.Value)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Run 执行单个 playbook，捕获标准输出
func (s *ansibleService) Run(ctx context.Context, playbook domain.Playbook, inventoryPath string) (domain.PlaybookResult, error) {
	log := logger.GetLogger()
	log.Info("执行 playbook: %s, inventory=%s", playbook.Name, inventoryPath)

	// 命令在 Ansible 目录中运行，相对路径需要先展开
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, s.config.Ansible.ExecPath, absPath(playbook.Path), "-i", absPath(inventoryPath))
	cmd.Dir = s.config.Ansible.WorkDir
	if s.echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, s.echo)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = s.stderr

	start := time.Now()
	err := cmd.Run()
	result := domain.PlaybookResult{
		Name:     playbook.Name,
		Path:     playbook.Path,
		Output:   stdout.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		log.Error("playbook %s 执行失败: exit=%d, error=%v", playbook.Name, exitCode, err)
		return result, &PlaybookExecutionError{Playbook: playbook.Name, ExitCode: exitCode, Err: err}
	}

	log.Info("playbook %s 执行成功，耗时 %v", playbook.Name, result.Duration.Round(time.Millisecond))
	return result, nil
}

// RunAll 依次执行 playbook
func (s *ansibleService) RunAll(ctx context.Context, playbooks []domain.Playbook, inventoryPath string) ([]domain.PlaybookResult, error) {
	results := make([]domain.PlaybookResult, 0, len(playbooks))
	for _, pb := range playbooks {
		result, err := s.Run(ctx, pb, inventoryPath)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
