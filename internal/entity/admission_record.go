package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Категории (科类) в исходных таблицах
const (
	CategoryPhysics = "物理类"
	CategoryHistory = "历史类"
)

var Categories = []string{CategoryPhysics, CategoryHistory}

// DefaultYear год набора, если в данных он не указан
const DefaultYear = "2025"

// AdmissionRecord одна строка проходных баллов: вуз × специальность × набор × год.
// Probability не хранится в БД, считается на каждый запрос.
type AdmissionRecord struct {
	ID          int    `db:"id" json:"id"`
	Year        string `db:"year" json:"year"`
	Batch       string `db:"batch" json:"batch"`
	Category    string `db:"category" json:"category"`
	Requirement string `db:"requirement" json:"requirement"`
	CollegeName string `db:"college_name" json:"college_name"`
	CollegeCode string `db:"college_code" json:"college_code"`
	CollegeInfo string `db:"college_info" json:"college_info"`
	MajorName   string `db:"major_name" json:"major_name"`
	MajorCode   string `db:"major_code" json:"major_code"`
	MajorInfo   string `db:"major_info" json:"major_info"`
	MinScore    *int   `db:"min_score" json:"min_score"`
	MinRank     *int   `db:"min_rank" json:"min_rank"`
	AvgScore    *int   `db:"avg_score" json:"avg_score"`
	MaxScore    *int   `db:"max_score" json:"max_score"`
	Tuition     string `db:"tuition" json:"tuition"`
	City        string `db:"city" json:"city"`

	Probability int `db:"-" json:"probability"`
}

// EffectiveAvg средний балл, а если его нет, минимальный.
func (r AdmissionRecord) EffectiveAvg() *int {
	if r.AvgScore != nil && *r.AvgScore != 0 {
		return r.AvgScore
	}
	if r.MinScore != nil && *r.MinScore != 0 {
		return r.MinScore
	}
	return nil
}

// Validate проверка перед записью из админки.
func (r AdmissionRecord) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.CollegeName) == "" {
		verr.Add("college_name", "院校名称不能为空")
	}
	if strings.TrimSpace(r.MajorName) == "" {
		verr.Add("major_name", "专业名称不能为空")
	}
	if err := CheckScoreOrder(r.MinScore, r.AvgScore, r.MaxScore); err != nil {
		verr.Add("avg_score", err.Error())
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// CheckScoreOrder min <= avg <= max для тех значений, что заданы.
func CheckScoreOrder(minScore, avgScore, maxScore *int) error {
	vals := []*int{minScore, avgScore, maxScore}
	names := []string{"最低分", "平均分", "最高分"}
	for i := 0; i < len(vals); i++ {
		for j := i + 1; j < len(vals); j++ {
			if vals[i] == nil || vals[j] == nil {
				continue
			}
			if *vals[i] > *vals[j] {
				return fmt.Errorf("%s(%d) 大于 %s(%d)", names[i], *vals[i], names[j], *vals[j])
			}
		}
	}
	return nil
}

// ValidationError ошибки по полям формы
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
