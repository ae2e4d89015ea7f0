package entity

// Page страница выборки для админки
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

func (p Page[T]) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Total
}

func (p Page[T]) PrevNum() int {
	return p.Page - 1
}

func (p Page[T]) NextNum() int {
	return p.Page + 1
}

type CollegeSummary struct {
	Name        string `db:"college_name"`
	Code        string `db:"college_code"`
	City        string `db:"city"`
	RecordCount int    `db:"cnt"`
}

type MajorSummary struct {
	Name        string `db:"major_name"`
	Code        string `db:"major_code"`
	RecordCount int    `db:"cnt"`
}

type AnalysisPoint struct {
	College     string
	Major       string
	Probability int
}
