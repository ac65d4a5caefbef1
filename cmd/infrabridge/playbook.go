package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// playbookCmd playbook 命令组
func playbookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "playbook 管理",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [dir]",
		Short: "按执行顺序列出 playbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listPlaybooks(cmd.OutOrStdout(), args)
		},
	})
	return cmd
}

func (a *app) listPlaybooks(out io.Writer, args []string) error {
	dir := a.cfg.Ansible.PlaybookDir
	if len(args) > 0 {
		dir = args[0]
	}

	playbooks, err := a.ansibleSvc.Discover(dir)
	if err != nil {
		return err
	}
	if len(playbooks) == 0 {
		fmt.Fprintf(out, "目录 %s 中没有 playbook\n", dir)
		return nil
	}

	fmt.Fprintf(out, "执行顺序 (%s):\n", dir)
	for i, pb := range playbooks {
		fmt.Fprintf(out, "  %d. %s\n", i+1, pb.Name)
		info, err := a.ansibleSvc.Inspect(pb)
		if err != nil {
			fmt.Fprintf(out, "     无法解析: %v\n", err)
			continue
		}
		for _, play := range info.Plays {
			if play.Hosts != "" {
				fmt.Fprintf(out, "     - %s (hosts: %s)\n", play.Name, play.Hosts)
			} else {
				fmt.Fprintf(out, "     - %s\n", play.Name)
			}
		}
	}
	return nil
}
