package repository

import (
	"context"
	"encoding/json"
	"time"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

// CandidateRepository 候选实体只读仓储。
// 数据由外部记录存储维护，这里只负责查询与快照转换。
type CandidateRepository interface {
	// FindCandidates 查找指定类型、站点范围内，到期日不晚于 before 的候选实体
	FindCandidates(ctx context.Context, alertType domain.AlertType, station string, before time.Time) ([]domain.CandidateEntity, error)
}

type candidateRepository struct {
	dao    dao.AlertCandidateDAO
	logger *elog.Component
}

func NewCandidateRepository(d dao.AlertCandidateDAO) CandidateRepository {
	return &candidateRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (r *candidateRepository) FindCandidates(ctx context.Context, alertType domain.AlertType, station string, before time.Time) ([]domain.CandidateEntity, error) {
	rows, err := r.dao.FindByTypeAndStation(ctx, string(alertType), station, before)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.CandidateEntity, 0, len(rows))
	for i := range rows {
		var numbers []string
		if err := json.Unmarshal([]byte(rows[i].ContactNumbers), &numbers); err != nil {
			// 号码格式坏了不应拖垮整轮评估，跳过并记日志
			r.logger.Warn("候选实体联系号码解析失败",
				elog.Int64("entityID", rows[i].EntityID),
				elog.FieldErr(err))
			continue
		}
		candidates = append(candidates, domain.CandidateEntity{
			ID:             rows[i].EntityID,
			ExpiryDate:     time.UnixMilli(rows[i].ExpiryDate),
			Station:        rows[i].Station,
			ContactNumbers: numbers,
		})
	}
	return candidates, nil
}
