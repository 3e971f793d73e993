package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type kindergartenRepository struct {
	db *gorm.DB
}

// NewKindergartenRepository 创建幼儿园 Repository
func NewKindergartenRepository(db *gorm.DB) KindergartenRepository {
	return &kindergartenRepository{db: db}
}

func (r *kindergartenRepository) Create(k *model.Kindergarten) error {
	if err := createWithStatus(r.db, k, &k.Status); err != nil {
		return wrapDBError(err, "创建幼儿园")
	}
	return nil
}

func (r *kindergartenRepository) FindByID(id uint) (*model.Kindergarten, error) {
	var k model.Kindergarten
	if err := r.db.First(&k, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询幼儿园 id=%d", id)
	}
	return &k, nil
}

func (r *kindergartenRepository) Update(k *model.Kindergarten) error {
	if err := r.db.Save(k).Error; err != nil {
		return wrapDBErrorf(err, "更新幼儿园 id=%d", k.ID)
	}
	return nil
}

func (r *kindergartenRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Kindergarten{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除幼儿园 id=%d", id)
	}
	return nil
}

func (r *kindergartenRepository) List(filter KindergartenFilter) ([]model.Kindergarten, int64, error) {
	q := r.db.Model(&model.Kindergarten{})
	if filter.Keyword != "" {
		q = q.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}
	var list []model.Kindergarten
	total, err := pageQuery(q, filter.Pager, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询幼儿园列表")
	}
	return list, total, nil
}
