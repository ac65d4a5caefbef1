package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/credentials"
	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/lucksec/infrabridge/internal/logger"
)

// TerraformService Terraform 操作服务接口
// 所有方法在进程非零退出时返回包装了 ErrProvision 的错误，不做重试
type TerraformService interface {
	// Init 初始化 Terraform，可重复执行
	Init(ctx context.Context, workDir string) error

	// Validate 验证 Terraform 配置
	Validate(ctx context.Context, workDir string) error

	// Plan 执行 Terraform plan
	Plan(ctx context.Context, workDir string, creds *credentials.CredentialSet) error

	// Apply 执行 Terraform apply
	Apply(ctx context.Context, workDir string, creds *credentials.CredentialSet, autoApprove bool) error

	// Destroy 执行 Terraform destroy
	Destroy(ctx context.Context, workDir string, creds *credentials.CredentialSet, autoApprove bool) error

	// Output 获取并解析 vm_public_ips 输出
	Output(ctx context.Context, workDir string, creds *credentials.CredentialSet) ([]domain.HostRecord, error)
}

// terraformService Terraform 服务实现
type terraformService struct {
	config *config.Config
	stdout io.Writer
	stderr io.Writer
}

// NewTerraformService 创建 Terraform 服务实例，子进程输出直接转发到当前终端
func NewTerraformService(cfg *config.Config) TerraformService {
	return NewTerraformServiceWithOutput(cfg, os.Stdout, os.Stderr)
}

// NewTerraformServiceWithOutput 创建 Terraform 服务实例并指定子进程输出
func NewTerraformServiceWithOutput(cfg *config.Config, stdout, stderr io.Writer) TerraformService {
	return &terraformService{
		config: cfg,
		stdout: stdout,
		stderr: stderr,
	}
}

// Init 初始化 Terraform
func (s *terraformService) Init(ctx context.Context, workDir string) error {
	log := logger.GetLogger()
	log.Info("开始初始化 Terraform: workDir=%s", workDir)

	if err := s.run(ctx, workDir, nil, "init", "-input=false"); err != nil {
		log.Error("Terraform init 失败: workDir=%s, error=%v", workDir, err)
		return provisionError("init", err)
	}

	log.Info("Terraform init 成功: workDir=%s", workDir)
	return nil
}

// Validate 验证 Terraform 配置
func (s *terraformService) Validate(ctx context.Context, workDir string) error {
	if err := s.run(ctx, workDir, nil, "validate"); err != nil {
		return provisionError("validate", err)
	}
	return nil
}

// Plan 执行 Terraform plan
func (s *terraformService) Plan(ctx context.Context, workDir string, creds *credentials.CredentialSet) error {
	log := logger.GetLogger()
	log.Debug("执行 Terraform plan: workDir=%s", workDir)

	if err := s.run(ctx, workDir, creds, "plan", "-input=false"); err != nil {
		log.Error("Terraform plan 失败: workDir=%s, error=%v", workDir, err)
		return provisionError("plan", err)
	}

	log.Info("Terraform plan 成功: workDir=%s", workDir)
	return nil
}

// Apply 执行 Terraform apply
func (s *terraformService) Apply(ctx context.Context, workDir string, creds *credentials.CredentialSet, autoApprove bool) error {
	log := logger.GetLogger()
	log.Info("执行 Terraform apply: workDir=%s, autoApprove=%v", workDir, autoApprove)

	args := []string{"apply", "-input=false"}
	if autoApprove {
		args = append(args, "-auto-approve")
	}

	if err := s.run(ctx, workDir, creds, args...); err != nil {
		log.Error("Terraform apply 失败: workDir=%s, error=%v", workDir, err)
		return provisionError("apply", err)
	}

	log.Info("Terraform apply 成功: workDir=%s", workDir)
	return nil
}

// Destroy 执行 Terraform destroy
func (s *terraformService) Destroy(ctx context.Context, workDir string, creds *credentials.CredentialSet, autoApprove bool) error {
	log := logger.GetLogger()
	log.Warn("执行 Terraform destroy: workDir=%s, autoApprove=%v", workDir, autoApprove)

	args := []string{"destroy", "-input=false"}
	if autoApprove {
		args = append(args, "-auto-approve")
	}

	if err := s.run(ctx, workDir, creds, args...); err != nil {
		log.Error("Terraform destroy 失败: workDir=%s, error=%v", workDir, err)
		return provisionError("destroy", err)
	}

	log.Info("Terraform destroy 成功: workDir=%s", workDir)
	return nil
}

// Output 获取 Terraform output 并解析为主机记录
func (s *terraformService) Output(ctx context.Context, workDir string, creds *credentials.CredentialSet) ([]domain.HostRecord, error) {
	var stdout bytes.Buffer
	cmd := s.command(ctx, workDir, creds, "output", "-json")
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, provisionError("output", err)
	}

	records, err := ParseHostOutputs(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Info("Terraform output 解析成功: %d 台主机", len(records))
	return records, nil
}

func (s *terraformService) run(ctx context.Context, workDir string, creds *credentials.CredentialSet, args ...string) error {
	cmd := s.command(ctx, workDir, creds, args...)
	cmd.Stdout = s.stdout
	return cmd.Run()
}

func (s *terraformService) command(ctx context.Context, workDir string, creds *credentials.CredentialSet, args ...string) *exec.Cmd {
	logger.GetLogger().Debug("exec: %s %s (dir=%s)", s.config.Terraform.ExecPath, strings.Join(args, " "), workDir)

	cmd := exec.CommandContext(ctx, s.config.Terraform.ExecPath, args...)
	cmd.Dir = workDir
	cmd.Env = s.environ(creds)
	cmd.Stderr = s.stderr
	return cmd
}

// environ 在当前环境变量基础上追加凭据，重复的键以后者为准
func (s *terraformService) environ(creds *credentials.CredentialSet) []string {
	env := append(os.Environ(), "TF_IN_AUTOMATION=1")
	if creds != nil {
		env = append(env, creds.TerraformEnv()...)
	}
	return env
}

// CheckTerraformInstalled 检查 Terraform 是否已安装
func CheckTerraformInstalled(execPath string) error {
	cmd := exec.Command(execPath, "version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("Terraform 未安装或不在 PATH 中: %w", err)
	}
	return nil
}
