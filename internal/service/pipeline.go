package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lucksec/infrabridge/internal/config"
	"github.com/lucksec/infrabridge/internal/credentials"
	"github.com/lucksec/infrabridge/internal/domain"
	"github.com/lucksec/infrabridge/internal/logger"
	"github.com/lucksec/infrabridge/internal/repository"
)

// 流水线阶段名
const (
	StageCredentials     = "credentials"
	StageTerraformInit   = "terraform-init"
	StageTerraformApply  = "terraform-apply"
	StageTerraformOutput = "terraform-output"
	StageInventory       = "inventory"
	StagePlaybooks       = "playbooks"
	StageReport          = "report"
)

// RunOptions 单次运行选项
type RunOptions struct {
	// SkipApply 跳过 init/apply，直接读取已有基础设施的输出
	SkipApply bool

	// AutoApprove apply 时不再交互确认
	AutoApprove bool
}

// Pipeline 凭据校验 → Terraform → 主机清单 → playbook → 报告
// 各阶段严格顺序执行，任一阶段失败立即终止
type Pipeline struct {
	config    *config.Config
	terraform TerraformService
	ansible   AnsibleService
	runs      repository.RunRepository
	lookup    credentials.LookupFunc
}

// NewPipeline 创建流水线，runs 为 nil 时不记录运行历史
func NewPipeline(cfg *config.Config, terraform TerraformService, ansible AnsibleService, runs repository.RunRepository, lookup credentials.LookupFunc) *Pipeline {
	return &Pipeline{
		config:    cfg,
		terraform: terraform,
		ansible:   ansible,
		runs:      runs,
		lookup:    lookup,
	}
}

// pipelineState 阶段之间传递的数据
type pipelineState struct {
	creds     *credentials.CredentialSet
	records   []domain.HostRecord
	inventory *domain.Inventory
	playbooks []domain.Playbook
	results   []domain.PlaybookResult
}

type stage struct {
	name string
	run  func(ctx context.Context, st *pipelineState) error
}

// stages 返回本次运行要执行的阶段
func (p *Pipeline) stages(opts RunOptions) []stage {
	stages := []stage{{StageCredentials, p.validateCredentials}}
	if !opts.SkipApply {
		stages = append(stages,
			stage{StageTerraformInit, func(ctx context.Context, _ *pipelineState) error {
				return p.terraform.Init(ctx, p.config.Terraform.WorkDir)
			}},
			stage{StageTerraformApply, func(ctx context.Context, st *pipelineState) error {
				return p.terraform.Apply(ctx, p.config.Terraform.WorkDir, st.creds, opts.AutoApprove)
			}},
		)
	}
	return append(stages,
		stage{StageTerraformOutput, p.collectOutput},
		stage{StageInventory, p.writeInventory},
		stage{StagePlaybooks, p.runPlaybooks},
		stage{StageReport, func(_ context.Context, st *pipelineState) error {
			return WriteReport(p.config.Report.Path, st.results)
		}},
	)
}

// Run 执行流水线，返回运行记录；失败时错误为 *StageError
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*domain.Run, error) {
	log := logger.GetLogger()
	run := p.newRun()
	run.Inventory = p.config.Ansible.InventoryFile
	run.Report = p.config.Report.Path

	stages := p.stages(opts)
	st := &pipelineState{}
	log.Info("开始运行流水线: id=%s, 共 %d 个阶段", run.ID, len(stages))

	for i, s := range stages {
		name := fmt.Sprintf("%s (%d/%d)", s.name, i+1, len(stages))
		log.Info("[%s] 开始", name)

		start := time.Now()
		err := s.run(ctx, st)
		record := domain.StageRecord{
			Name:     s.name,
			Status:   domain.RunStatusSucceeded,
			Duration: time.Since(start),
		}

		if err != nil {
			record.Status = domain.RunStatusFailed
			record.Error = err.Error()
			run.Stages = append(run.Stages, record)
			p.finish(run, st, err)
			log.Error("[%s] 失败: %v", name, err)
			return run, &StageError{Stage: s.name, Err: err}
		}

		run.Stages = append(run.Stages, record)
		p.save(run)
		log.Info("[%s] 完成，耗时 %v", name, record.Duration.Round(time.Millisecond))
	}

	p.finish(run, st, nil)
	log.Info("流水线完成: id=%s, 耗时 %v", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return run, nil
}

func (p *Pipeline) validateCredentials(_ context.Context, st *pipelineState) error {
	creds, err := credentials.Validate(credentials.RequiredNames, p.lookup)
	if err != nil {
		return err
	}
	st.creds = creds

	// 密钥检查仅供参考，不影响流程
	if info, err := credentials.InspectKey(creds.PublicKeyPath()); err == nil {
		logger.GetLogger().Debug("SSH 密钥: %s %s", info.Type, info.Fingerprint)
	} else {
		logger.GetLogger().Debug("无法解析 SSH 密钥: %v", err)
	}
	return nil
}

func (p *Pipeline) collectOutput(ctx context.Context, st *pipelineState) error {
	records, err := p.terraform.Output(ctx, p.config.Terraform.WorkDir, st.creds)
	if err != nil {
		return err
	}
	st.records = records
	return nil
}

func (p *Pipeline) writeInventory(_ context.Context, st *pipelineState) error {
	st.inventory = BuildInventory(st.records, domain.InventoryVars{
		User:           st.creds.AnsibleUser(),
		PrivateKeyFile: st.creds.PublicKeyPath(),
	})
	if err := WriteInventory(p.config.Ansible.InventoryFile, st.inventory); err != nil {
		return err
	}
	logger.GetLogger().Info("主机清单已写入 %s: %d 个分组, %d 台主机",
		p.config.Ansible.InventoryFile, len(st.inventory.Groups), st.inventory.HostCount())
	return nil
}

func (p *Pipeline) runPlaybooks(ctx context.Context, st *pipelineState) error {
	playbooks, err := p.ansible.Discover(p.config.Ansible.PlaybookDir)
	if err != nil {
		return err
	}
	if len(playbooks) == 0 {
		logger.GetLogger().Warn("目录 %s 中没有 playbook", p.config.Ansible.PlaybookDir)
	}
	st.playbooks = playbooks

	results, err := p.ansible.RunAll(ctx, playbooks, p.config.Ansible.InventoryFile)
	st.results = results
	return err
}

func (p *Pipeline) newRun() *domain.Run {
	if p.runs != nil {
		return p.runs.NewRun()
	}
	return &domain.Run{Status: domain.RunStatusRunning, StartedAt: time.Now()}
}

func (p *Pipeline) finish(run *domain.Run, st *pipelineState, err error) {
	run.FinishedAt = time.Now()
	if st.inventory != nil {
		run.HostCount = st.inventory.HostCount()
	}
	run.Playbooks = run.Playbooks[:0]
	for _, r := range st.results {
		run.Playbooks = append(run.Playbooks, r.Name)
	}

	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = domain.RunStatusSucceeded
	}
	p.save(run)
}

// save 运行记录保存失败只记日志，不中断流水线
func (p *Pipeline) save(run *domain.Run) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Save(run); err != nil {
		logger.GetLogger().Warn("保存运行记录失败: id=%s, error=%v", run.ID, err)
	}
}

// BuildInventoryFromOutput 读取 terraform output（文件或 Terraform），生成并写入主机清单
// outputFile 为空时调用 terraform output；读取文件时只校验主机清单所需的凭据
func (p *Pipeline) BuildInventoryFromOutput(ctx context.Context, outputFile string) (*domain.Inventory, error) {
	names := credentials.RequiredNames
	if outputFile != "" {
		names = credentials.InventoryNames
	}
	creds, err := credentials.Validate(names, p.lookup)
	if err != nil {
		return nil, err
	}

	var records []domain.HostRecord
	if outputFile != "" {
		records, err = ParseHostOutputsFile(outputFile)
	} else {
		records, err = p.terraform.Output(ctx, p.config.Terraform.WorkDir, creds)
	}
	if err != nil {
		return nil, err
	}

	inv := BuildInventory(records, domain.InventoryVars{
		User:           creds.AnsibleUser(),
		PrivateKeyFile: creds.PublicKeyPath(),
	})
	if err := WriteInventory(p.config.Ansible.InventoryFile, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Destroy 校验凭据后销毁基础设施
func (p *Pipeline) Destroy(ctx context.Context, autoApprove bool) error {
	creds, err := credentials.Validate(credentials.RequiredNames, p.lookup)
	if err != nil {
		return &StageError{Stage: StageCredentials, Err: err}
	}
	if err := p.terraform.Init(ctx, p.config.Terraform.WorkDir); err != nil {
		return &StageError{Stage: StageTerraformInit, Err: err}
	}
	return p.terraform.Destroy(ctx, p.config.Terraform.WorkDir, creds, autoApprove)
}

// Plan 校验凭据后执行 terraform plan，不修改基础设施
func (p *Pipeline) Plan(ctx context.Context) error {
	creds, err := credentials.Validate(credentials.RequiredNames, p.lookup)
	if err != nil {
		return &StageError{Stage: StageCredentials, Err: err}
	}
	if err := p.terraform.Init(ctx, p.config.Terraform.WorkDir); err != nil {
		return &StageError{Stage: StageTerraformInit, Err: err}
	}
	return p.terraform.Plan(ctx, p.config.Terraform.WorkDir, creds)
}
