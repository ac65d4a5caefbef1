package domain

import "time"

// RunStatus 流水线运行状态
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run 表示一次流水线运行记录
type Run struct {
	ID         string        `json:"id"`          // UUID 标识
	Status     RunStatus     `json:"status"`      // 运行状态
	StartedAt  time.Time     `json:"started_at"`  // 开始时间
	FinishedAt time.Time     `json:"finished_at"` // 结束时间
	Stages     []StageRecord `json:"stages"`      // 已执行的阶段
	Inventory  string        `json:"inventory"`   // 主机清单路径
	Report     string        `json:"report"`      // 报告路径
	HostCount  int           `json:"host_count"`  // 清单中的主机数
	Playbooks  []string      `json:"playbooks"`   // 已成功执行的 playbook
	Error      string        `json:"error,omitempty"`
}

// StageRecord 单个阶段的执行记录
type StageRecord struct {
	Name     string        `json:"name"`
	Status   RunStatus     `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// FailedStage 返回第一个失败的阶段名，没有则返回空字符串
func (r *Run) FailedStage() string {
	for _, s := range r.Stages {
		if s.Status == RunStatusFailed {
			return s.Name
		}
	}
	return ""
}
