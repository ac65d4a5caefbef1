package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/lucksec/infrabridge/internal/service"
	"github.com/spf13/cobra"
)

// runCmd 完整流水线
func runCmd(a *app) *cobra.Command {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "创建基础设施并执行全部 playbook",
		Long: `依次执行：凭据校验 → terraform init → terraform apply → terraform output
→ 生成主机清单 → 执行 playbook → 写入报告。`,
		Example: `  # 交互式确认 apply
  infrabridge run

  # 跳过 apply 确认
  infrabridge run --auto-approve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := service.RunOptions{
				AutoApprove: autoApprove || a.cfg.Terraform.AutoApprove,
			}
			return a.runPipeline(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVarP(&autoApprove, "auto-approve", "y", false, "terraform apply 时跳过确认")
	return cmd
}

// configureCmd 只对已有基础设施执行配置
func configureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "对已创建的基础设施重新生成主机清单并执行 playbook",
		Long:  "跳过 terraform init/apply，读取当前 terraform output 后生成主机清单并执行全部 playbook。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context(), cmd.OutOrStdout(), service.RunOptions{SkipApply: true})
		},
	}
}

// planCmd terraform plan
func planCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "校验凭据并执行 terraform plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pipeline.Plan(cmd.Context())
		},
	}
}

// destroyCmd 销毁基础设施
func destroyCmd(a *app) *cobra.Command {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "销毁 Terraform 创建的基础设施",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.pipeline.Destroy(cmd.Context(), autoApprove); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "基础设施已销毁")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&autoApprove, "auto-approve", "y", false, "terraform destroy 时跳过确认")
	return cmd
}

// runPipeline 执行流水线并打印结果摘要
func (a *app) runPipeline(ctx context.Context, out io.Writer, opts service.RunOptions) error {
	run, err := a.pipeline.Run(ctx, opts)
	if run != nil {
		printRunSummary(out, run)
	}
	if err != nil {
		return describeFailure(err)
	}
	fmt.Fprintf(out, "\n主机清单: %s\n报告: %s\n", run.Inventory, run.Report)
	return nil
}

// describeFailure 按错误分类补充说明
func describeFailure(err error) error {
	var hint string
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		hint = "请检查环境变量或 .env 文件"
	case errors.Is(err, domain.ErrProvision):
		hint = "Terraform 执行失败或 output 结构不符"
	case errors.Is(err, domain.ErrExecution):
		hint = "playbook 执行失败，后续 playbook 未执行"
	case errors.Is(err, domain.ErrIO):
		hint = "读写产物文件失败"
	default:
		return err
	}
	return fmt.Errorf("%w（%s）", err, hint)
}

func printRunSummary(out io.Writer, run *domain.Run) {
	fmt.Fprintf(out, "运行 %s: %s\n", run.ID, run.Status)
	for _, s := range run.Stages {
		line := fmt.Sprintf("  %-18s %-10s %v", s.Name, s.Status, s.Duration.Round(time.Millisecond))
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}
