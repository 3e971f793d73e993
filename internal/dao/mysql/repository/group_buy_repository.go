// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupBuyRepository 接口，处理拼团及参与者的数据库操作
package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

// groupBuyRepository GroupBuyRepository 接口的实现
type groupBuyRepository struct {
	db *gorm.DB // GORM 数据库实例
}

// NewGroupBuyRepository 创建 GroupBuyRepository 实例
func NewGroupBuyRepository(db *gorm.DB) GroupBuyRepository {
	return &groupBuyRepository{db: db}
}

// Create 创建拼团
func (r *groupBuyRepository) Create(g *model.GroupBuy) error {
	if err := r.db.Create(g).Error; err != nil {
		return wrapDBError(err, "创建拼团")
	}
	return nil
}

// FindByID 查询拼团（含参与者）
func (r *groupBuyRepository) FindByID(id uint) (*model.GroupBuy, error) {
	var g model.GroupBuy
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&g, id).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询拼团 id=%d", id)
	}
	return &g, nil
}

// FindByIDForUpdate 加行锁读取拼团，需在事务中调用
func (r *groupBuyRepository) FindByIDForUpdate(id uint) (*model.GroupBuy, error) {
	var g model.GroupBuy
	if err := r.db.Scopes(forUpdate).First(&g, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "锁定拼团 id=%d", id)
	}
	return &g, nil
}

// List 分页查询拼团
func (r *groupBuyRepository) List(filter GroupBuyFilter) ([]model.GroupBuy, int64, error) {
	q := r.db.Model(&model.GroupBuy{})
	if filter.ActivityID != 0 {
		q = q.Where("activity_id = ?", filter.ActivityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var list []model.GroupBuy
	total, err := pageQuery(q, filter.Pager, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询拼团列表")
	}
	return list, total, nil
}

// Save 写回拼团（人数、状态、成团时间），不级联参与者
func (r *groupBuyRepository) Save(g *model.GroupBuy) error {
	if err := r.db.Omit("Participants").Save(g).Error; err != nil {
		return wrapDBErrorf(err, "更新拼团 id=%d", g.ID)
	}
	return nil
}

// Transition 条件更新拼团状态
func (r *groupBuyRepository) Transition(id uint, from, to string) (int64, error) {
	res := r.db.Model(&model.GroupBuy{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新拼团状态 id=%d", id)
	}
	return res.RowsAffected, nil
}

// FindExpired 查找已过截止时间仍处于 active 的拼团
func (r *groupBuyRepository) FindExpired(now time.Time, limit int) ([]model.GroupBuy, error) {
	var list []model.GroupBuy
	err := r.db.Where("status = ? AND deadline < ?", model.GroupBuyActive, now).
		Order("deadline ASC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, wrapDBError(err, "查询过期拼团")
	}
	return list, nil
}

// AddParticipant 插入参与者，唯一索引冲突返回 CodeConflict
func (r *groupBuyRepository) AddParticipant(p *model.GroupBuyParticipant) error {
	if err := r.db.Create(p).Error; err != nil {
		return wrapDBErrorf(err, "加入拼团 group=%d user=%d", p.GroupBuyID, p.UserID)
	}
	return nil
}

// ParticipantExists 用户是否已参与该拼团
func (r *groupBuyRepository) ParticipantExists(groupBuyID, userID uint) (bool, error) {
	var n int64
	err := r.db.Model(&model.GroupBuyParticipant{}).
		Where("group_buy_id = ? AND user_id = ?", groupBuyID, userID).
		Count(&n).Error
	if err != nil {
		return false, wrapDBError(err, "查询拼团参与")
	}
	return n > 0, nil
}

// ParticipantUserIDs 拼团全部参与者
func (r *groupBuyRepository) ParticipantUserIDs(groupBuyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.GroupBuyParticipant{}).
		Where("group_buy_id = ?", groupBuyID).
		Order("id ASC").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, wrapDBError(err, "查询拼团参与者")
	}
	return ids, nil
}

// SumParticipantsByInitiator 团长在某活动下发起的拼团累计人数（不含已取消的团）
func (r *groupBuyRepository) SumParticipantsByInitiator(activityID, initiatorID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&model.GroupBuy{}).
		Where("activity_id = ? AND initiator_id = ? AND status <> ?", activityID, initiatorID, model.GroupBuyFailed).
		Select("COALESCE(SUM(current_participants), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, wrapDBError(err, "统计拼团人数")
	}
	return sum, nil
}
