package domain

import "errors"

// 错误分类，各阶段的错误都包装其中之一，调用方用 errors.Is 判断
var (
	// ErrConfiguration 凭据缺失或配置无效
	ErrConfiguration = errors.New("configuration error")

	// ErrProvision Terraform init/apply/output 失败或输出结构不符
	ErrProvision = errors.New("provision error")

	// ErrExecution playbook 执行失败
	ErrExecution = errors.New("execution error")

	// ErrIO 产物读写失败
	ErrIO = errors.New("io error")
)
