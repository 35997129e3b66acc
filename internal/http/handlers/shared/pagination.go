package shared

// 分页默认值与上限；等级表等受控大列表在服务层自行限制
const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}
