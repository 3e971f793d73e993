package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 阶梯奖励定义 ====================

type tieredRewardRepository struct {
	db *gorm.DB
}

// NewTieredRewardRepository 创建阶梯奖励 Repository
func NewTieredRewardRepository(db *gorm.DB) TieredRewardRepository {
	return &tieredRewardRepository{db: db}
}

func (r *tieredRewardRepository) Create(t *model.TieredReward) error {
	if err := createWithStatus(r.db, t, &t.Status); err != nil {
		return wrapDBErrorf(err, "创建奖励档位 activity=%d type=%s tier=%d", t.ActivityID, t.Type, t.Tier)
	}
	return nil
}

func (r *tieredRewardRepository) FindByID(id uint) (*model.TieredReward, error) {
	var t model.TieredReward
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询奖励档位 id=%d", id)
	}
	return &t, nil
}

func (r *tieredRewardRepository) Update(t *model.TieredReward) error {
	if err := r.db.Save(t).Error; err != nil {
		return wrapDBErrorf(err, "更新奖励档位 id=%d", t.ID)
	}
	return nil
}

// Delete 物理删除，释放 (activity_id, type, tier) 唯一索引
func (r *tieredRewardRepository) Delete(id uint) error {
	if err := r.db.Unscoped().Delete(&model.TieredReward{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除奖励档位 id=%d", id)
	}
	return nil
}

func (r *tieredRewardRepository) ListByActivity(activityID uint, rewardType string, onlyEnabled bool) ([]model.TieredReward, error) {
	q := r.db.Where("activity_id = ?", activityID)
	if rewardType != "" {
		q = q.Where("type = ?", rewardType)
	}
	if onlyEnabled {
		q = q.Where("status = ?", model.StatusEnabled)
	}
	var list []model.TieredReward
	if err := q.Order("type ASC, tier ASC").Find(&list).Error; err != nil {
		return nil, wrapDBError(err, "查询奖励档位")
	}
	return list, nil
}

// ==================== 奖励发放记录 ====================

type rewardRecordRepository struct {
	db *gorm.DB
}

// NewRewardRecordRepository 创建奖励记录 Repository
func NewRewardRecordRepository(db *gorm.DB) RewardRecordRepository {
	return &rewardRecordRepository{db: db}
}

// InsertIgnore INSERT ... ON CONFLICT DO NOTHING
// MySQL 下生成 ON DUPLICATE KEY UPDATE id=id，冲突时受影响行数为 0
func (r *rewardRecordRepository) InsertIgnore(rec *model.TieredRewardRecord) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "发放奖励 tier=%d user=%d", rec.TieredRewardID, rec.UserID)
	}
	return res.RowsAffected == 1, nil
}

func (r *rewardRecordRepository) FindByID(id uint) (*model.TieredRewardRecord, error) {
	var rec model.TieredRewardRecord
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询奖励记录 id=%d", id)
	}
	return &rec, nil
}

func (r *rewardRecordRepository) List(filter RewardRecordFilter) ([]model.TieredRewardRecord, int64, error) {
	q := r.db.Model(&model.TieredRewardRecord{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ActivityID != 0 {
		q = q.Where("activity_id = ?", filter.ActivityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var list []model.TieredRewardRecord
	total, err := pageQuery(q, filter.Pager, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询奖励记录")
	}
	return list, total, nil
}

func (r *rewardRecordRepository) Transition(id uint, from, to string, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.Model(&model.TieredRewardRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新奖励记录 id=%d", id)
	}
	return res.RowsAffected, nil
}
