package repository

import "strings"

// RecordFilter условия поиска. Пустое поле не фильтрует.
// Вхождение подстроки ищем через strpos: регистр учитывается, а % и _ из запроса не работают как шаблоны.
type RecordFilter struct {
	College     string
	Major       string
	Category    string
	Requirement string
	// Scores окно по среднему баллу (если его нет, по минимальному), nil не фильтрует
	Scores *ScoreRange
}

// ScoreRange границы включительно. Запись без баллов считается как 0.
type ScoreRange struct {
	From int
	To   int
}

// Contains та же проверка, что effectiveScoreSQL делает в базе.
func (s ScoreRange) Contains(effective int) bool {
	return effective >= s.From && effective <= s.To
}

const effectiveScoreSQL = "COALESCE(NULLIF(avg_score, 0), NULLIF(min_score, 0), 0)"

func (f RecordFilter) Empty() bool {
	return f.College == "" && f.Major == "" && f.Category == "" && f.Requirement == "" && f.Scores == nil
}

// where возвращает условие с плейсхолдерами "?" (потом Rebind) и аргументы.
func (f RecordFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.College != "" {
		conds = append(conds, "strpos(college_name, ?) > 0")
		args = append(args, f.College)
	}
	if f.Major != "" {
		conds = append(conds, "strpos(major_name, ?) > 0")
		args = append(args, f.Major)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Requirement != "" {
		conds = append(conds, "strpos(requirement, ?) > 0")
		args = append(args, f.Requirement)
	}
	if f.Scores != nil {
		conds = append(conds, effectiveScoreSQL+" BETWEEN ? AND ?")
		args = append(args, f.Scores.From, f.Scores.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
