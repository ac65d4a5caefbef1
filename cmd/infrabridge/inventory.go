package main

import (
	"fmt"
	"io"

	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/lucksec/infrabridge/internal/service"
	"github.com/spf13/cobra"
)

// inventoryCmd 主机清单命令组
func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "主机清单管理",
	}
	cmd.AddCommand(buildInventoryCmd(a))
	cmd.AddCommand(showInventoryCmd(a))
	return cmd
}

// buildInventoryCmd 从 terraform output 生成主机清单
func buildInventoryCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "根据 terraform output 生成主机清单",
		Example: `  # 读取当前 Terraform 状态的输出
  infrabridge inventory build

  # 使用保存的 terraform output -json 结果
  infrabridge inventory build --from output.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.pipeline.BuildInventoryFromOutput(cmd.Context(), from)
			if err != nil {
				return describeFailure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "主机清单已写入 %s\n", a.cfg.Ansible.InventoryFile)
			printInventory(cmd.OutOrStdout(), inv)
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "terraform output -json 结果文件")
	return cmd
}

// showInventoryCmd 展示已生成的主机清单
func showInventoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "展示主机清单",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showInventory(cmd.OutOrStdout(), args)
		},
	}
}

func (a *app) showInventory(out io.Writer, args []string) error {
	path := a.cfg.Ansible.InventoryFile
	if len(args) > 0 {
		path = args[0]
	}
	inv, err := service.ParseInventory(path)
	if err != nil {
		return err
	}
	printInventory(out, inv)
	return nil
}

func printInventory(out io.Writer, inv *domain.Inventory) {
	if len(inv.Groups) == 0 {
		fmt.Fprintln(out, "主机清单中没有主机")
	}
	for _, g := range inv.Groups {
		role := g.Role
		if role == "" {
			role = "(空角色)"
		}
		fmt.Fprintf(out, "[%s] %d 台主机\n", role, len(g.Members))
		for _, m := range g.Members {
			fmt.Fprintf(out, "  %-24s %s\n", m.Hostname, m.IP)
		}
	}
	fmt.Fprintf(out, "ansible_user=%s\nansible_ssh_private_key_file=%s\n", inv.Vars.User, inv.Vars.PrivateKeyFile)
}
