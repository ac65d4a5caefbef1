package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// runsCmd 运行记录命令组
func runsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "查看流水线运行记录",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出运行记录（最新在前）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "查看运行详情，支持 ID 前缀",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showRun(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

func (a *app) listRuns(out io.Writer) error {
	runs, err := a.runRepo.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "没有运行记录")
		return nil
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  %s  %-9s  %d 台主机, %d 个 playbook",
			run.ID, run.StartedAt.Format(time.DateTime), run.Status, run.HostCount, len(run.Playbooks))
		if stage := run.FailedStage(); stage != "" {
			line += "  失败阶段: " + stage
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func (a *app) showRun(out io.Writer, id string) error {
	run, err := a.runRepo.Get(id)
	if err != nil {
		return err
	}

	printRunSummary(out, run)
	fmt.Fprintf(out, "开始: %s\n", run.StartedAt.Format(time.DateTime))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "结束: %s\n", run.FinishedAt.Format(time.DateTime))
	}
	fmt.Fprintf(out, "主机清单: %s (%d 台主机)\n", run.Inventory, run.HostCount)
	fmt.Fprintf(out, "报告: %s\n", run.Report)
	for i, name := range run.Playbooks {
		fmt.Fprintf(out, "  %d. %s\n", i+1, name)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "错误: %s\n", run.Error)
	}
	return nil
}
