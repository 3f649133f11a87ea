package registry

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/errs"
	"gitee.com/flycash/alert-engine/internal/repository"
)

// Service 供应商注册表服务接口
type Service interface {
	// SelectProvider 选择一个可用的供应商账号。
	// 优先使用指定账号（激活且有余量），否则按优先级取第一个有余量的激活账号；
	// 都不满足返回 errs.ErrNoEligibleProvider，本轮执行硬停。
	// 选择结果只是参考，真正的额度占用通过 Reserve 的条件更新完成。
	SelectProvider(ctx context.Context, preferredID int64, now time.Time) (domain.ProviderAccount, error)
	// Reserve 在网络调用前占用一条当日额度。
	// 厂商侧拒绝不回滚占用，防止通过重试绕开额度；
	// 网络调用前就能发现的校验失败根本不会走到这里。
	Reserve(ctx context.Context, providerID int64, now time.Time) error

	// 账号管理

	// Create 创建账号
	Create(ctx context.Context, account domain.ProviderAccount) (domain.ProviderAccount, error)
	// Update 更新账号配置
	Update(ctx context.Context, account domain.ProviderAccount) error
	// GetByID 获取账号
	GetByID(ctx context.Context, id int64) (domain.ProviderAccount, error)
	// ListActive 按优先级列出激活账号
	ListActive(ctx context.Context) ([]domain.ProviderAccount, error)
}

type service struct {
	repo repository.ProviderAccountRepository
}

func NewService(repo repository.ProviderAccountRepository) Service {
	return &service{repo: repo}
}

func (s *service) SelectProvider(ctx context.Context, preferredID int64, now time.Time) (domain.ProviderAccount, error) {
	day := now.Format(repository.QuotaDayLayout)

	if preferredID > 0 {
		preferred, err := s.repo.FindByID(ctx, preferredID)
		if err == nil && preferred.IsAvailable(day) {
			return preferred, nil
		}
		// 指定账号不可用时退回优先级选择
	}

	accounts, err := s.repo.FindActive(ctx)
	if err != nil {
		return domain.ProviderAccount{}, err
	}
	for i := range accounts {
		if accounts[i].IsAvailable(day) {
			return accounts[i], nil
		}
	}
	return domain.ProviderAccount{}, fmt.Errorf("%w", errs.ErrNoEligibleProvider)
}

func (s *service) Reserve(ctx context.Context, providerID int64, now time.Time) error {
	return s.repo.Reserve(ctx, providerID, now)
}

func (s *service) Create(ctx context.Context, account domain.ProviderAccount) (domain.ProviderAccount, error) {
	if err := account.Validate(); err != nil {
		return domain.ProviderAccount{}, err
	}
	if account.Status == "" {
		account.Status = domain.ProviderStatusActive
	}
	return s.repo.Create(ctx, account)
}

func (s *service) Update(ctx context.Context, account domain.ProviderAccount) error {
	if account.ID <= 0 {
		return fmt.Errorf("%w: 账号ID必须大于0", errs.ErrInvalidParameter)
	}
	if err := account.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, account)
}

func (s *service) GetByID(ctx context.Context, id int64) (domain.ProviderAccount, error) {
	if id <= 0 {
		return domain.ProviderAccount{}, fmt.Errorf("%w: 账号ID必须大于0", errs.ErrInvalidParameter)
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListActive(ctx context.Context) ([]domain.ProviderAccount, error) {
	return s.repo.FindActive(ctx)
}
