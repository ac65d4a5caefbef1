package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucksec/infrabridge/internal/domain"
)

// ReportTitle 报告标题
const ReportTitle = "# Playbook Outputs"

// RenderReport 生成 Markdown 报告，每个 playbook 一节，输出原样放入代码块
func RenderReport(results []domain.PlaybookResult) []byte {
	var b strings.Builder
	b.WriteString(ReportTitle + "\n\n")
	for i, r := range results {
		fence := codeFence(r.Output)
		fmt.Fprintf(&b, "## Playbook %d: %s\n\n", i+1, r.Name)
		b.WriteString(fence + "yaml\n")
		b.WriteString(r.Output)
		b.WriteString("\n" + fence + "\n\n")
	}
	return []byte(b.String())
}

// codeFence 返回比输出中最长的反引号序列更长的围栏
func codeFence(output string) string {
	fence := "```"
	for strings.Contains(output, fence) {
		fence += "`"
	}
	return fence
}

// WriteReport 写入报告文件，覆盖上一次的报告
func WriteReport(path string, results []domain.PlaybookResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ioError("创建目录", dir, err)
		}
	}
	if err := os.WriteFile(path, RenderReport(results), 0644); err != nil {
		return ioError("写入报告", path, err)
	}
	return nil
}
