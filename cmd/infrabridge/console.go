package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/lucksec/infrabridge/internal/service"
	"github.com/spf13/cobra"
)

// console 交互式控制台，使用 go-prompt 提供带 Tab 补全的 REPL
type console struct {
	app *app
	ctx context.Context
	out io.Writer
}

// newConsoleCmd 创建控制台命令
func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台。

进入控制台后，可使用命令:
  help                     显示帮助
  run [-y]                 执行完整流水线
  configure                跳过 apply，仅生成主机清单并执行 playbook
  plan                     terraform plan
  inventory [build|show]   生成或展示主机清单
  playbooks                按执行顺序列出 playbook
  runs [run-id]            查看运行记录
  credential               检查凭据
  exit / quit              退出控制台`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &console{app: a, ctx: cmd.Context(), out: os.Stdout}
			return c.run()
		},
	}
}

// run 启动控制台主循环，输入 exit/quit 或 Ctrl+D 退出
func (c *console) run() error {
	c.printWelcome()

	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix("infrabridge> "),
		prompt.OptionTitle("infrabridge console"),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && isExitCommand(in)
		}),
	)

	p.Run()
	fmt.Fprintln(c.out, "\n已退出控制台。")
	return nil
}

func isExitCommand(in string) bool {
	switch strings.TrimSpace(in) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// executor 执行单行命令
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" || isExitCommand(line) {
		return
	}
	if err := c.handleCommand(line); err != nil {
		fmt.Fprintf(c.out, "错误: %v\n", err)
	}
}

var topLevelSuggestions = []prompt.Suggest{
	{Text: "help", Description: "显示帮助"},
	{Text: "run", Description: "执行完整流水线"},
	{Text: "configure", Description: "跳过 apply 执行 playbook"},
	{Text: "plan", Description: "terraform plan"},
	{Text: "inventory", Description: "生成或展示主机清单"},
	{Text: "playbooks", Description: "列出 playbook"},
	{Text: "runs", Description: "查看运行记录"},
	{Text: "credential", Description: "检查凭据"},
	{Text: "exit", Description: "退出控制台"},
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)

	if len(parts) == 0 || (len(parts) == 1 && !strings.HasSuffix(text, " ")) {
		return prompt.FilterHasPrefix(topLevelSuggestions, d.GetWordBeforeCursor(), true)
	}

	word := d.GetWordBeforeCursor()
	switch parts[0] {
	case "run":
		return prompt.FilterHasPrefix([]prompt.Suggest{
			{Text: "-y", Description: "terraform apply 时跳过确认"},
		}, word, true)
	case "inventory":
		return prompt.FilterHasPrefix([]prompt.Suggest{
			{Text: "build", Description: "根据 terraform output 生成主机清单"},
			{Text: "show", Description: "展示主机清单"},
		}, word, true)
	case "runs":
		return prompt.FilterHasPrefix(c.runSuggestions(), word, true)
	}
	return []prompt.Suggest{}
}

func (c *console) runSuggestions() []prompt.Suggest {
	runs, err := c.app.runRepo.List()
	if err != nil {
		return nil
	}
	suggestions := make([]prompt.Suggest, 0, len(runs))
	for _, run := range runs {
		suggestions = append(suggestions, prompt.Suggest{
			Text:        run.ID,
			Description: fmt.Sprintf("[%s] %s", run.Status, run.StartedAt.Format("2006-01-02 15:04")),
		})
	}
	return suggestions
}

// printWelcome 打印欢迎信息
func (c *console) printWelcome() {
	fmt.Fprintln(c.out, "infrabridge 交互式控制台")
	fmt.Fprintf(c.out, "工作目录: %s\n\n", c.app.cfg.WorkDir)
	fmt.Fprintln(c.out, "提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")
	fmt.Fprintln(c.out, "      按 Tab 键自动补全命令和参数")
	fmt.Fprintln(c.out)
}

// handleCommand 解析并处理一条命令
func (c *console) handleCommand(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	args := parts[1:]

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return nil
	case "run":
		autoApprove := len(args) > 0 && (args[0] == "-y" || args[0] == "--auto-approve")
		return c.app.runPipeline(c.ctx, c.out, service.RunOptions{
			AutoApprove: autoApprove || c.app.cfg.Terraform.AutoApprove,
		})
	case "configure":
		return c.app.runPipeline(c.ctx, c.out, service.RunOptions{SkipApply: true})
	case "plan":
		return c.app.pipeline.Plan(c.ctx)
	case "inventory":
		if len(args) > 0 && args[0] == "build" {
			inv, err := c.app.pipeline.BuildInventoryFromOutput(c.ctx, "")
			if err != nil {
				return describeFailure(err)
			}
			printInventory(c.out, inv)
			return nil
		}
		return c.app.showInventory(c.out, nil)
	case "playbooks", "playbook":
		return c.app.listPlaybooks(c.out, nil)
	case "runs":
		if len(args) > 0 {
			return c.app.showRun(c.out, args[0])
		}
		return c.app.listRuns(c.out)
	case "credential", "credentials":
		return c.app.checkCredentials(c.out)
	default:
		fmt.Fprintln(c.out, "未知命令。输入 'help' 查看支持的命令。")
		return nil
	}
}

// printHelp 打印帮助
func (c *console) printHelp() {
	fmt.Fprintln(c.out, "可用命令:")
	fmt.Fprintln(c.out, "  run [-y]                 执行完整流水线")
	fmt.Fprintln(c.out, "  configure                跳过 apply，仅生成主机清单并执行 playbook")
	fmt.Fprintln(c.out, "  plan                     terraform plan")
	fmt.Fprintln(c.out, "  inventory [build|show]   生成或展示主机清单")
	fmt.Fprintln(c.out, "  playbooks                按执行顺序列出 playbook")
	fmt.Fprintln(c.out, "  runs [run-id]            查看运行记录")
	fmt.Fprintln(c.out, "  credential               检查凭据")
	fmt.Fprintln(c.out, "  exit | quit              退出控制台")
}
