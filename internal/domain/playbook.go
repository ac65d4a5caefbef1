package domain

import "time"

// Playbook 表示 playbooks 目录中的一个 playbook 文件
type Playbook struct {
	Name string `json:"name"` // 文件名
	Path string `json:"path"` // 完整路径
}

// PlaybookResult 单个 playbook 的执行结果
type PlaybookResult struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Output   string        `json:"output"`   // ansible-playbook 的标准输出（原样保留）
	Duration time.Duration `json:"duration"` // 执行耗时
}

// PlayInfo playbook 中单个 play 的概要
type PlayInfo struct {
	Name  string `json:"name"`
	Hosts string `json:"hosts"`
}

// PlaybookInfo playbook 文件的概要信息
type PlaybookInfo struct {
	Playbook
	Plays []PlayInfo `json:"plays"`
}
