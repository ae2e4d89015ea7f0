// Package probability грубая оценка шанса поступления по разнице баллов.
// Это не статистическая вероятность, а одна из пяти меток.
package probability

import "gaokao/internal/entity"

const (
	NoData       = 0
	Unlikely     = 10
	Risky        = 40
	Likely       = 70
	VeryLikely   = 95
	GapThreshold = 25
)

// Score отображает (балл пользователя, min, avg) в {0,10,40,70,95}.
// Нулевое значение считается отсутствующим.
func Score(userScore int, minScore, avgScore *int) int {
	effective, ok := effectiveAvg(minScore, avgScore)
	if !ok {
		return NoData
	}

	gap := userScore - effective
	switch {
	case gap >= GapThreshold:
		return VeryLikely
	case gap >= 0:
		return Likely
	case gap >= -GapThreshold:
		return Risky
	default:
		return Unlikely
	}
}

// ForRecord то же самое для записи из БД.
func ForRecord(userScore int, r entity.AdmissionRecord) int {
	return Score(userScore, r.MinScore, r.AvgScore)
}

func effectiveAvg(minScore, avgScore *int) (int, bool) {
	if avgScore != nil && *avgScore != 0 {
		return *avgScore, true
	}
	if minScore != nil && *minScore != 0 {
		return *minScore, true
	}
	return 0, false
}

// BadgeClass bootstrap-класс значка, пороги как на старой странице.
func BadgeClass(p int) string {
	switch {
	case p > 80:
		return "bg-success"
	case p > 40:
		return "bg-warning"
	default:
		return "bg-danger"
	}
}

// ChartColor цвет столбца на графике анализа.
func ChartColor(p int) string {
	switch {
	case p > 80:
		return "#28a745"
	case p > 40:
		return "#ffc107"
	default:
		return "#dc3545"
	}
}

func Label(p int) string {
	switch p {
	case VeryLikely:
		return "很有希望"
	case Likely:
		return "较有希望"
	case Risky:
		return "有风险"
	case Unlikely:
		return "希望不大"
	default:
		return "暂无数据"
	}
}
