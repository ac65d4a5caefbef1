package service

import (
	"fmt"

	"github.com/lucksec/infrabridge/internal/domain"
)

// StageError 标记失败的流水线阶段
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("阶段 %s 失败: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PlaybookExecutionError playbook 以非零状态退出
type PlaybookExecutionError struct {
	Playbook string
	ExitCode int
	Err      error
}

func (e *PlaybookExecutionError) Error() string {
	return fmt.Sprintf("playbook %s 执行失败 (exit %d): %v", e.Playbook, e.ExitCode, e.Err)
}

func (e *PlaybookExecutionError) Unwrap() []error {
	return []error{domain.ErrExecution, e.Err}
}

func provisionError(op string, err error) error {
	return fmt.Errorf("%w: terraform %s 失败: %w", domain.ErrProvision, op, err)
}

func ioError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrIO, op, path, err)
}
