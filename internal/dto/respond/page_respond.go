package respond

// PageResult 分页列表
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// NewPageResult 组装分页结果，list 为 nil 时输出空数组
func NewPageResult[T any](list []T, total int64, page, pageSize int) *PageResult[T] {
	if list == nil {
		list = []T{}
	}
	return &PageResult[T]{List: list, Total: total, Page: page, PageSize: pageSize}
}
