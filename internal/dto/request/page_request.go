package request

import "kindergarten_server/internal/dao/mysql/repository"

// PageRequest 分页参数，绑定 query string
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Pager 转换为 Repository 分页参数，非法值取默认
func (p PageRequest) Pager() repository.Pager {
	return repository.Pager{Page: p.Page, PageSize: p.PageSize}.Normalize()
}
