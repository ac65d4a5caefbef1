package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/credentials"
	"github.com/lucksec/infrabridge/internal/logger"
	"github.com/lucksec/infrabridge/internal/repository"
	"github.com/lucksec/infrabridge/internal/service"
	"github.com/spf13/cobra"
)

// app 命令共享的依赖，在 PersistentPreRunE 中初始化
type app struct {
	configPath string
	logLevel   string

	cfg          *config.Config
	terraformSvc service.TerraformService
	ansibleSvc   service.AnsibleService
	runRepo      repository.RunRepository
	pipeline     *service.Pipeline
	lookup       credentials.LookupFunc
}

func main() {
	// Ctrl+C 终止正在执行的 terraform / ansible-playbook
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()
	_ = logger.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "执行命令失败: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd 创建根命令
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "infrabridge",
		Short: "infrabridge 用 Terraform 创建云主机并用 Ansible 完成配置",
		Long: `infrabridge 串联 Terraform 与 Ansible：

  1. 校验云服务商凭据
  2. terraform init / apply
  3. 将 terraform output -json 转换为 Ansible 主机清单
  4. 依次执行 playbooks 目录中的全部 playbook
  5. 将 playbook 输出汇总为 Markdown 报告

任一步骤失败立即终止，进程以非零状态退出。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// completion 不需要加载配置
			if cmd.Name() == "completion" || cmd.Name() == cobra.ShellCompRequestCmd {
				return nil
			}
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认查找 ./.infrabridge.ini）")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别：DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(runCmd(a))
	rootCmd.AddCommand(configureCmd(a))
	rootCmd.AddCommand(planCmd(a))
	rootCmd.AddCommand(destroyCmd(a))
	rootCmd.AddCommand(inventoryCmd(a))
	rootCmd.AddCommand(playbookCmd(a))
	rootCmd.AddCommand(credentialCmd(a))
	rootCmd.AddCommand(runsCmd(a))
	rootCmd.AddCommand(newConsoleCmd(a))

	setupCompletion(rootCmd)
	setupDynamicCompletion(rootCmd, a)

	return rootCmd
}

// init 加载配置、初始化日志并创建服务
func (a *app) init() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := logger.InitLogger(&logger.Config{
		Level:         logger.ParseLevel(cfg.Log.Level),
		EnableConsole: cfg.Log.EnableConsole,
		EnableFile:    cfg.Log.EnableFile,
		LogDir:        cfg.Log.LogDir,
		LogFile:       cfg.Log.LogFile,
	})
	if err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	log.Debug("配置加载成功: config=%s, WorkDir=%s, Terraform=%s, Ansible=%s",
		cfg.ConfigPath, cfg.WorkDir, cfg.Terraform.WorkDir, cfg.Ansible.WorkDir)

	lookup, err := credentials.EnvLookup(cfg.EnvFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.lookup = lookup
	a.terraformSvc = service.NewTerraformService(cfg)
	a.ansibleSvc = service.NewAnsibleService(cfg)
	a.runRepo = repository.NewRunRepository(cfg)
	a.pipeline = service.NewPipeline(cfg, a.terraformSvc, a.ansibleSvc, a.runRepo, lookup)
	return nil
}
