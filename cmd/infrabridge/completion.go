package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completeRunIDs 补全运行记录 ID
func completeRunIDs(a *app) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := a.init(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		runs, err := a.runRepo.List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, run := range runs {
			if strings.HasPrefix(run.ID, toComplete) {
				// 显示格式：ID [状态] 开始时间
				completions = append(completions, fmt.Sprintf("%s\t[%s] %s", run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04")))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// setupDynamicCompletion 设置动态补全
func setupDynamicCompletion(rootCmd *cobra.Command, a *app) {
	if showCmd := findCommand(rootCmd, "runs", "show"); showCmd != nil {
		showCmd.ValidArgsFunction = completeRunIDs(a)
	}

	// playbook list [dir] 只补全目录
	if listCmd := findCommand(rootCmd, "playbook", "list"); listCmd != nil {
		listCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		}
	}
	if cmd := findCommand(rootCmd, "inventory", "build"); cmd != nil {
		_ = cmd.MarkFlagFilename("from", "json")
	}
}

// findCommand 按路径查找子命令
func findCommand(root *cobra.Command, path ...string) *cobra.Command {
	cmd := root
	for _, name := range path {
		var next *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cmd = next
	}
	return cmd
}

// setupCompletion 设置自动补全命令
func setupCompletion(rootCmd *cobra.Command) {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "生成自动补全脚本",
		Long: `生成指定 shell 的自动补全脚本。

Bash:
  $ source <(infrabridge completion bash)

Zsh:
  $ source <(infrabridge completion zsh)

Fish:
  $ infrabridge completion fish | source

PowerShell:
  $ infrabridge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}

	rootCmd.AddCommand(completionCmd)
}
