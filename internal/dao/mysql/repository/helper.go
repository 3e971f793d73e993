package repository

import (
	"errors"
	"unicode/utf8"

	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - ErrDuplicatedKey  -> CodeConflict（需开启 gorm.Config.TranslateError）
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.Wrap(err, errorx.CodeConflict, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.Wrapf(err, errorx.CodeConflict, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// ==================== 查询辅助 ====================

// Pager 分页参数，Page 从 1 开始
type Pager struct {
	Page     int
	PageSize int
}

// Normalize 修正非法分页参数
func (p Pager) Normalize() Pager {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = constants.DEFAULT_PAGE_SIZE
	}
	if p.PageSize > constants.MAX_PAGE_SIZE {
		p.PageSize = constants.MAX_PAGE_SIZE
	}
	return p
}

// paginate gorm Scope 形式的分页
func paginate(p Pager) func(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
	}
}

// forUpdate 行锁（SELECT ... FOR UPDATE），只在事务内有意义
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// byKindergarten kindergartenID 为 0 时不过滤
func byKindergarten(kindergartenID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if kindergartenID == 0 {
			return db
		}
		return db.Where("kindergarten_id = ?", kindergartenID)
	}
}

// pageQuery 统计总数并查询一页数据
// q 先转成新 Session，Count 与 Find 各自基于同一组条件
// preloads 只作用于 Find，不参与 Count
func pageQuery(q *gorm.DB, p Pager, order string, dest any, preloads ...string) (int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	find := q.Order(order).Scopes(paginate(p))
	for _, name := range preloads {
		find = find.Preload(name)
	}
	if err := find.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// createWithStatus 插入带 default:1 的 int8 status 行
// gorm 插入时跳过零值，停用（0）需要在同一事务内显式补写，不依赖方言是否回填默认值
func createWithStatus(db *gorm.DB, value any, status *int8) error {
	want := *status
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(value).Error; err != nil {
			return err
		}
		if want != 0 {
			return nil
		}
		*status = want
		return tx.Model(value).UpdateColumn("status", want).Error
	})
}

// truncateUTF8 截断到不超过 n 字节，不拆分多字节字符
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
