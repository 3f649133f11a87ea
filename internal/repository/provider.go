package repository

import (
	"context"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

// QuotaDayLayout 额度日期格式
const QuotaDayLayout = "2006-01-02"

// ProviderAccountRepository 供应商账号仓储接口
type ProviderAccountRepository interface {
	// Create 创建账号
	Create(ctx context.Context, account domain.ProviderAccount) (domain.ProviderAccount, error)
	// Update 更新账号配置
	Update(ctx context.Context, account domain.ProviderAccount) error
	// FindByID 根据ID查找账号
	FindByID(ctx context.Context, id int64) (domain.ProviderAccount, error)
	// FindActive 按优先级列出全部激活账号
	FindActive(ctx context.Context) ([]domain.ProviderAccount, error)
	// Reserve 占用一条当日额度，额度不足返回 errs.ErrQuotaExceeded
	Reserve(ctx context.Context, id int64, now time.Time) error
	// ResetDay 把额度滚动到 now 所在日期，返回滚动的账号数
	ResetDay(ctx context.Context, now time.Time) (int64, error)
}

type providerAccountRepository struct {
	dao dao.ProviderAccountDAO
}

func NewProviderAccountRepository(d dao.ProviderAccountDAO) ProviderAccountRepository {
	return &providerAccountRepository{dao: d}
}

func (r *providerAccountRepository) Create(ctx context.Context, account domain.ProviderAccount) (domain.ProviderAccount, error) {
	created, err := r.dao.Create(ctx, r.toEntity(account))
	if err != nil {
		return domain.ProviderAccount{}, err
	}
	return r.toDomain(created), nil
}

func (r *providerAccountRepository) Update(ctx context.Context, account domain.ProviderAccount) error {
	return r.dao.Update(ctx, r.toEntity(account))
}

func (r *providerAccountRepository) FindByID(ctx context.Context, id int64) (domain.ProviderAccount, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.ProviderAccount{}, err
	}
	return r.toDomain(found), nil
}

func (r *providerAccountRepository) FindActive(ctx context.Context) ([]domain.ProviderAccount, error) {
	accounts, err := r.dao.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return slice.Map(accounts, func(_ int, src dao.ProviderAccount) domain.ProviderAccount {
		return r.toDomain(src)
	}), nil
}

func (r *providerAccountRepository) Reserve(ctx context.Context, id int64, now time.Time) error {
	return r.dao.Reserve(ctx, id, now.Format(QuotaDayLayout))
}

func (r *providerAccountRepository) ResetDay(ctx context.Context, now time.Time) (int64, error) {
	return r.dao.ResetDay(ctx, now.Format(QuotaDayLayout))
}

func (r *providerAccountRepository) toDomain(d dao.ProviderAccount) domain.ProviderAccount {
	return domain.ProviderAccount{
		ID:               d.ID,
		Name:             d.Name,
		Code:             d.Code,
		SenderID:         d.SenderID,
		RegionID:         d.RegionID,
		APIKey:           d.APIKey,
		APISecret:        d.APISecret,
		AppID:            d.AppID,
		VendorTemplateID: d.VendorTemplateID,
		IsTestMode:       d.IsTestMode,
		DailyQuota:       d.DailyQuota,
		UsedToday:        d.UsedToday,
		QuotaDate:        d.QuotaDate,
		Priority:         d.Priority,
		Status:           domain.ProviderStatus(d.Status),
	}
}

func (r *providerAccountRepository) toEntity(account domain.ProviderAccount) dao.ProviderAccount {
	return dao.ProviderAccount{
		ID:               account.ID,
		Name:             account.Name,
		Code:             account.Code,
		SenderID:         account.SenderID,
		RegionID:         account.RegionID,
		APIKey:           account.APIKey,
		APISecret:        account.APISecret,
		AppID:            account.AppID,
		VendorTemplateID: account.VendorTemplateID,
		IsTestMode:       account.IsTestMode,
		DailyQuota:       account.DailyQuota,
		UsedToday:        account.UsedToday,
		QuotaDate:        account.QuotaDate,
		Priority:         account.Priority,
		Status:           string(account.Status),
	}
}
