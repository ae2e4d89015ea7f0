package importer

import (
	"math"
	"strconv"
	"strings"

	"gaokao/internal/entity"
)

// Заголовки колонок исходной таблицы
const (
	ColYear        = "年份"
	ColBatch       = "批次"
	ColCategory    = "科类"
	ColRequirement = "选科要求"
	ColCollegeName = "院校名称"
	ColCollegeCode = "院校代码"
	ColCollegeInfo = "院校基础信息"
	ColMajorName   = "专业名称"
	ColMajorCode   = "专业代码"
	ColMajorInfo   = "专业基础信息"
	ColMinScore    = "最低分1"
	ColMinRank     = "最低位次"
	ColAvgScore    = "平均分"
	ColMaxScore    = "最高分"
	ColTuition     = "学费"
	ColCity        = "城市"
)

const DefaultYear = entity.DefaultYear

type SkipReason string

const (
	ReasonMissingCollege     SkipReason = "missing college name"
	ReasonInconsistentScores SkipReason = "inconsistent scores"
	ReasonInsertFailed       SkipReason = "insert failed"
)

// Header позиции колонок по названию
type Header map[string]int

func NewHeader(cells []string) Header {
	h := make(Header, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		if _, exists := h[name]; !exists {
			h[name] = i
		}
	}
	return h
}

// Row одна строка данных с доступом по названию колонки.
type Row struct {
	Number int // номер строки в файле, с 1
	header Header
	cells  []string
}

func NewRow(number int, header Header, cells []string) Row {
	return Row{Number: number, header: header, cells: cells}
}

// Text значение ячейки без пробелов; false если колонки нет или ячейка пустая.
func (r Row) Text(col string) (string, bool) {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return "", false
	}
	v := strings.TrimSpace(r.cells[i])
	return v, v != ""
}

func (r Row) TextOr(col, def string) string {
	if v, ok := r.Text(col); ok {
		return v
	}
	return def
}

// Int разбирает число мягко: "580", "580.0", "1,234". Ошибка разбора даёт nil, а не 0.
func (r Row) Int(col string) *int {
	v, ok := r.Text(col)
	if !ok {
		return nil
	}
	return parseLenientInt(v)
}

func parseLenientInt(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	// колонки в БД INTEGER, значение вне int32 считаем неизвестным
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		v := int(n)
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// RowResult либо запись, либо причина пропуска.
type RowResult struct {
	Record entity.AdmissionRecord
	Skip   SkipReason
	Detail string
}

func (r RowResult) Imported() bool {
	return r.Skip == ""
}

func skipped(reason SkipReason, detail string) RowResult {
	return RowResult{Skip: reason, Detail: detail}
}

// ParseRow переводит строку таблицы в запись.
func ParseRow(row Row) RowResult {
	college, ok := row.Text(ColCollegeName)
	if !ok {
		return skipped(ReasonMissingCollege, "")
	}

	minScore := row.Int(ColMinScore)
	avgScore := row.Int(ColAvgScore)
	if avgScore == nil && minScore != nil {
		v := *minScore
		avgScore = &v
	}
	maxScore := row.Int(ColMaxScore)

	if err := entity.CheckScoreOrder(minScore, avgScore, maxScore); err != nil {
		return skipped(ReasonInconsistentScores, err.Error())
	}

	return RowResult{Record: entity.AdmissionRecord{
		Year:        row.TextOr(ColYear, DefaultYear),
		Batch:       row.TextOr(ColBatch, ""),
		Category:    row.TextOr(ColCategory, ""),
		Requirement: row.TextOr(ColRequirement, ""),
		CollegeName: college,
		CollegeCode: row.TextOr(ColCollegeCode, ""),
		CollegeInfo: row.TextOr(ColCollegeInfo, ""),
		MajorName:   row.TextOr(ColMajorName, ""),
		MajorCode:   row.TextOr(ColMajorCode, ""),
		MajorInfo:   row.TextOr(ColMajorInfo, ""),
		MinScore:    minScore,
		MinRank:     row.Int(ColMinRank),
		AvgScore:    avgScore,
		MaxScore:    maxScore,
		Tuition:     row.TextOr(ColTuition, ""),
		City:        row.TextOr(ColCity, ""),
	}}
}
