package services

import (
	"eims/pkg/logger"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InstallmentScheduler 分期逾期扫描调度器
//
// 每日凌晨执行一次，把到期未付的分期标记为逾期。扫描本身幂等，
// 服务重启后首次执行会补上停机期间漏标的行。
type InstallmentScheduler struct {
	finance *FinanceService
	cron    *cron.Cron
	spec    string
	running bool
}

// NewInstallmentScheduler 创建逾期扫描调度器
func NewInstallmentScheduler(db *gorm.DB, spec string) *InstallmentScheduler {
	if spec == "" {
		spec = "0 1 * * *"
	}
	return &InstallmentScheduler{
		finance: NewFinanceService(db),
		cron:    cron.New(),
		spec:    spec,
	}
}

// Start 启动调度器
func (s *InstallmentScheduler) Start() error {
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	logger.GetLogger().Info("启动分期逾期扫描调度器")

	_, err := s.cron.AddFunc(s.spec, s.runOnce)
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %v", err)
	}

	// 启动时先跑一次，补停机期间的漏标
	s.runOnce()

	s.cron.Start()
	s.running = true

	logger.GetLogger().Infof("分期逾期扫描调度器启动成功，cron: %s", s.spec)
	return nil
}

// Stop 停止调度器
func (s *InstallmentScheduler) Stop() {
	if !s.running {
		return
	}

	logger.GetLogger().Info("停止分期逾期扫描调度器")
	s.cron.Stop()
	s.running = false
}

func (s *InstallmentScheduler) runOnce() {
	marked, err := s.finance.MarkOverdueInstallments(time.Now())
	if err != nil {
		logger.GetLogger().Errorf("分期逾期扫描失败: %v", err)
		return
	}
	if marked == 0 {
		logger.GetLogger().Debug("分期逾期扫描完成，无新增逾期")
	}
}
