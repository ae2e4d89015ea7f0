package service

import (
	"context"
	"sort"
	"strings"

	"gaokao/internal/entity"
	"gaokao/internal/repository"
)

// memRecords хранилище записей в памяти, повторяет семантику AdmissionRepository.
type memRecords struct {
	rows   []entity.AdmissionRecord
	nextID int
}

func newMemRecords(rows ...entity.AdmissionRecord) *memRecords {
	m := &memRecords{}
	for _, r := range rows {
		m.nextID++
		r.ID = m.nextID
		m.rows = append(m.rows, r)
	}
	return m
}

func (m *memRecords) match(r entity.AdmissionRecord, f repository.RecordFilter) bool {
	return strings.Contains(r.CollegeName, f.College) &&
		strings.Contains(r.MajorName, f.Major) &&
		(f.Category == "" || r.Category == f.Category) &&
		strings.Contains(r.Requirement, f.Requirement) &&
		(f.Scores == nil || f.Scores.Contains(effective(r)))
}

func effective(r entity.AdmissionRecord) int {
	if v := r.EffectiveAvg(); v != nil {
		return *v
	}
	return 0
}

func (m *memRecords) Search(_ context.Context, f repository.RecordFilter, limit int) ([]entity.AdmissionRecord, error) {
	out := make([]entity.AdmissionRecord, 0)
	for _, r := range m.rows {
		if !m.match(r, f) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRecords) Count(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memRecords) GetByID(_ context.Context, id int) (*entity.AdmissionRecord, error) {
	for _, r := range m.rows {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRecords) List(ctx context.Context, keyword string, page, pageSize int) (entity.Page[entity.AdmissionRecord], error) {
	all, _ := m.Search(ctx, repository.RecordFilter{College: keyword}, 0)
	p := entity.Page[entity.AdmissionRecord]{Page: page, PageSize: pageSize, Total: int64(len(all))}
	from := (page - 1) * pageSize
	if from < len(all) {
		to := from + pageSize
		if to > len(all) {
			to = len(all)
		}
		p.Items = all[from:to]
	}
	return p, nil
}

func (m *memRecords) Create(_ context.Context, rec *entity.AdmissionRecord) error {
	m.nextID++
	rec.ID = m.nextID
	m.rows = append(m.rows, *rec)
	return nil
}

func (m *memRecords) Update(_ context.Context, rec *entity.AdmissionRecord) error {
	for i := range m.rows {
		if m.rows[i].ID == rec.ID {
			m.rows[i] = *rec
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memRecords) Delete(_ context.Context, id int) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memRecords) ByCollege(_ context.Context, name string) ([]entity.AdmissionRecord, error) {
	out := make([]entity.AdmissionRecord, 0)
	for _, r := range m.rows {
		if r.CollegeName == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) ByMajor(_ context.Context, name string) ([]entity.AdmissionRecord, error) {
	out := make([]entity.AdmissionRecord, 0)
	for _, r := range m.rows {
		if r.MajorName == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) Colleges(_ context.Context, keyword string) ([]entity.CollegeSummary, error) {
	idx := map[string]int{}
	out := make([]entity.CollegeSummary, 0)
	for _, r := range m.rows {
		if !strings.Contains(r.CollegeName, keyword) {
			continue
		}
		i, ok := idx[r.CollegeName]
		if !ok {
			i = len(out)
			idx[r.CollegeName] = i
			out = append(out, entity.CollegeSummary{Name: r.CollegeName, Code: r.CollegeCode, City: r.City})
		}
		out[i].RecordCount++
	}
	return out, nil
}

func (m *memRecords) Majors(_ context.Context, keyword string) ([]entity.MajorSummary, error) {
	idx := map[string]int{}
	out := make([]entity.MajorSummary, 0)
	for _, r := range m.rows {
		if !strings.Contains(r.MajorName, keyword) {
			continue
		}
		i, ok := idx[r.MajorName]
		if !ok {
			i = len(out)
			idx[r.MajorName] = i
			out = append(out, entity.MajorSummary{Name: r.MajorName, Code: r.MajorCode})
		}
		out[i].RecordCount++
	}
	return out, nil
}

// memUsers хранилище пользователей в памяти
type memUsers struct {
	byID   map[int]*entity.User
	nextID int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int]*entity.User)}
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	for _, existing := range m.byID {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int) (*entity.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context) ([]entity.User, error) {
	out := make([]entity.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id int, hash string, role entity.Role) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.Role = role
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *memUsers) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	var n int64
	for _, u := range m.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func intp(v int) *int { return &v }
