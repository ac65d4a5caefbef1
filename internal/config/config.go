package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// DefaultConfigFile 默认配置文件名
const DefaultConfigFile = ".infrabridge.ini"

// Config 应用配置
// 启动时构建一次，之后以参数形式传入各组件
type Config struct {
	// 工作目录，其余相对路径均相对于此目录
	WorkDir string

	// 配置文件路径（未找到配置文件时为空）
	ConfigPath string

	// dotenv 文件路径，用于补充凭据环境变量
	EnvFile string

	// 运行记录目录
	RunDir string

	// Terraform 配置
	Terraform TerraformConfig

	// Ansible 配置
	Ansible AnsibleConfig

	// 报告配置
	Report ReportConfig

	// 日志配置
	Log LogConfig
}

// TerraformConfig Terraform 相关配置
type TerraformConfig struct {
	// Terraform 可执行文件路径
	ExecPath string

	// Terraform 配置目录
	WorkDir string

	// apply 时是否自动批准
	AutoApprove bool
}

// AnsibleConfig Ansible 相关配置
type AnsibleConfig struct {
	// ansible-playbook 可执行文件路径
	ExecPath string

	// Ansible 配置目录
	WorkDir string

	// playbook 目录
	PlaybookDir string

	// 生成的主机清单文件
	InventoryFile string
}

// ReportConfig 报告配置
type ReportConfig struct {
	// 报告文件路径
	Path string
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// Default 返回默认配置，目录布局为：
//
//	terraform_configuration/
//	ansible_configuration/hosts.ini
//	ansible_configuration/playbooks/
//	playbook_outputs.md
func Default() *Config {
	return &Config{
		WorkDir: ".",
		EnvFile: ".env",
		RunDir:  ".infrabridge/runs",
		Terraform: TerraformConfig{
			ExecPath: "terraform",
			WorkDir:  "terraform_configuration",
		},
		Ansible: AnsibleConfig{
			ExecPath:      "ansible-playbook",
			WorkDir:       "ansible_configuration",
			PlaybookDir:   "playbooks",
			InventoryFile: "hosts.ini",
		},
		Report: ReportConfig{
			Path: "playbook_outputs.md",
		},
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    true,
			LogDir:        "logs",
		},
	}
}

// LoadConfig 加载配置
// path 为空时依次查找当前目录和 $HOME/.infrabridge 下的 .infrabridge.ini，
// 都不存在时使用默认配置
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("配置文件 %s 不可用: %w", path, err)
	}

	if path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
		cfg.ConfigPath = path
		if err := apply(cfg, file); err != nil {
			return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
		}
	}

	cfg.resolvePaths()
	return cfg, nil
}

// findConfigFile 查找已存在的配置文件
func findConfigFile() string {
	candidates := []string{DefaultConfigFile}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, ".infrabridge", DefaultConfigFile))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// apply 将 INI 文件中的非空值覆盖到配置上
func apply(cfg *Config, file *ini.File) error {
	section := file.Section("default")
	setString(section, "work_dir", &cfg.WorkDir)
	setString(section, "env_file", &cfg.EnvFile)
	setString(section, "run_dir", &cfg.RunDir)

	section = file.Section("terraform")
	setString(section, "exec_path", &cfg.Terraform.ExecPath)
	setString(section, "work_dir", &cfg.Terraform.WorkDir)
	if err := setBool(section, "auto_approve", &cfg.Terraform.AutoApprove); err != nil {
		return err
	}

	section = file.Section("ansible")
	setString(section, "exec_path", &cfg.Ansible.ExecPath)
	setString(section, "work_dir", &cfg.Ansible.WorkDir)
	setString(section, "playbook_dir", &cfg.Ansible.PlaybookDir)
	setString(section, "inventory_file", &cfg.Ansible.InventoryFile)

	section = file.Section("report")
	setString(section, "path", &cfg.Report.Path)

	section = file.Section("log")
	setString(section, "level", &cfg.Log.Level)
	setString(section, "log_dir", &cfg.Log.LogDir)
	setString(section, "log_file", &cfg.Log.LogFile)
	if err := setBool(section, "enable_console", &cfg.Log.EnableConsole); err != nil {
		return err
	}
	return setBool(section, "enable_file", &cfg.Log.EnableFile)
}

func setString(section *ini.Section, key string, dst *string) {
	if v := section.Key(key).String(); v != "" {
		*dst = v
	}
}

func setBool(section *ini.Section, key string, dst *bool) error {
	if !section.HasKey(key) || section.Key(key).String() == "" {
		return nil
	}
	v, err := section.Key(key).Bool()
	if err != nil {
		return fmt.Errorf("[%s] %s: %w", section.Name(), key, err)
	}
	*dst = v
	return nil
}

// resolvePaths 把相对路径展开为基于 WorkDir 的绝对路径
// playbook 目录和主机清单相对于 Ansible 目录；ansible-playbook 在 Ansible 目录中运行，
// 传给它的路径必须是绝对路径
func (c *Config) resolvePaths() {
	if abs, err := filepath.Abs(c.WorkDir); err == nil {
		c.WorkDir = abs
	}
	c.EnvFile = c.join(c.WorkDir, c.EnvFile)
	c.RunDir = c.join(c.WorkDir, c.RunDir)
	c.Terraform.WorkDir = c.join(c.WorkDir, c.Terraform.WorkDir)
	c.Ansible.WorkDir = c.join(c.WorkDir, c.Ansible.WorkDir)
	c.Ansible.PlaybookDir = c.join(c.Ansible.WorkDir, c.Ansible.PlaybookDir)
	c.Ansible.InventoryFile = c.join(c.Ansible.WorkDir, c.Ansible.InventoryFile)
	c.Report.Path = c.join(c.WorkDir, c.Report.Path)
	c.Log.LogDir = c.join(c.WorkDir, c.Log.LogDir)
}

func (c *Config) join(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// SaveConfig 将当前配置写入 INI 文件
func SaveConfig(cfg *Config, path string) error {
	file := ini.Empty()

	section := file.Section("default")
	section.Key("work_dir").SetValue(cfg.WorkDir)
	section.Key("env_file").SetValue(cfg.EnvFile)
	section.Key("run_dir").SetValue(cfg.RunDir)

	section = file.Section("terraform")
	section.Key("exec_path").SetValue(cfg.Terraform.ExecPath)
	section.Key("work_dir").SetValue(cfg.Terraform.WorkDir)
	section.Key("auto_approve").SetValue(fmt.Sprint(cfg.Terraform.AutoApprove))

	section = file.Section("ansible")
	section.Key("exec_path").SetValue(cfg.Ansible.ExecPath)
	section.Key("work_dir").SetValue(cfg.Ansible.WorkDir)
	section.Key("playbook_dir").SetValue(cfg.Ansible.PlaybookDir)
	section.Key("inventory_file").SetValue(cfg.Ansible.InventoryFile)

	section = file.Section("report")
	section.Key("path").SetValue(cfg.Report.Path)

	section = file.Section("log")
	section.Key("level").SetValue(cfg.Log.Level)
	section.Key("enable_console").SetValue(fmt.Sprint(cfg.Log.EnableConsole))
	section.Key("enable_file").SetValue(fmt.Sprint(cfg.Log.EnableFile))
	section.Key("log_dir").SetValue(cfg.Log.LogDir)
	section.Key("log_file").SetValue(cfg.Log.LogFile)

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	return file.SaveTo(path)
}
