package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/domain"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("运行记录不存在")

// RunRepository 流水线运行记录仓库接口
type RunRepository interface {
	// NewRun 创建一条运行中的记录（未保存）
	NewRun() *domain.Run

	// Save 保存运行记录，已存在时覆盖
	Save(run *domain.Run) error

	// Get 按 ID 获取运行记录，支持唯一前缀
	Get(id string) (*domain.Run, error)

	// List 列出全部运行记录，最新的在前
	List() ([]*domain.Run, error)
}

// runRepository 运行记录仓库实现，每条记录一个 JSON 文件
type runRepository struct {
	dir string
}

// NewRunRepository 创建运行记录仓库实例
func NewRunRepository(cfg *config.Config) RunRepository {
	return &runRepository{dir: cfg.RunDir}
}

// NewRun 创建运行记录
func (r *runRepository) NewRun() *domain.Run {
	return &domain.Run{
		ID:        uuid.New().String(),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
		Stages:    []domain.StageRecord{},
	}
}

// Save 保存运行记录
func (r *runRepository) Save(run *domain.Run) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("无效的运行 ID %q: %w", run.ID, err)
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("创建运行记录目录失败: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化运行记录失败: %w", err)
	}

	// 先写临时文件再重命名，避免中断时留下半个 JSON
	path := r.path(run.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	return nil
}

// Get 获取运行记录
func (r *runRepository) Get(id string) (*domain.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	if _, err := uuid.Parse(id); err == nil {
		return r.load(r.path(id))
	}

	// 前缀匹配
	runs, err := r.List()
	if err != nil {
		return nil, err
	}
	var found *domain.Run
	for _, run := range runs {
		if strings.HasPrefix(run.ID, id) {
			if found != nil {
				return nil, fmt.Errorf("运行 ID 前缀 %s 不唯一", id)
			}
			found = run
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return found, nil
}

// List 列出运行记录
func (r *runRepository) List() ([]*domain.Run, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*domain.Run{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取运行记录目录失败: %w", err)
	}

	runs := []*domain.Run{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		run, err := r.load(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			// 跳过损坏的记录
			continue
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (r *runRepository) load(path string) (*domain.Run, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return nil, fmt.Errorf("读取运行记录失败: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("解析运行记录失败: %w", err)
	}
	return &run, nil
}

func (r *runRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
