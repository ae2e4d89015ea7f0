package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"gaokao/internal/database"
	"gaokao/internal/entity"
)

const recordColumns = `id, year, batch, category, requirement,
	college_name, college_code, college_info,
	major_name, major_code, major_info,
	min_score, min_rank, avg_score, max_score, tuition, city`

const insertRecordSQL = `
	INSERT INTO admission_records (
		year, batch, category, requirement,
		college_name, college_code, college_info,
		major_name, major_code, major_info,
		min_score, min_rank, avg_score, max_score, tuition, city
	) VALUES (
		:year, :batch, :category, :requirement,
		:college_name, :college_code, :college_info,
		:major_name, :major_code, :major_info,
		:min_score, :min_rank, :avg_score, :max_score, :tuition, :city
	)`

const updateRecordSQL = `
	UPDATE admission_records SET
		year = :year, batch = :batch, category = :category, requirement = :requirement,
		college_name = :college_name, college_code = :college_code, college_info = :college_info,
		major_name = :major_name, major_code = :major_code, major_info = :major_info,
		min_score = :min_score, min_rank = :min_rank, avg_score = :avg_score, max_score = :max_score,
		tuition = :tuition, city = :city
	WHERE id = :id`

type AdmissionRepository struct {
	db *sqlx.DB
}

func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admission_records`)
	return n, translate(err, "count admission records")
}

// Search записи по фильтру в порядке вставки, не больше limit штук.
func (r *AdmissionRepository) Search(ctx context.Context, f RecordFilter, limit int) ([]entity.AdmissionRecord, error) {
	where, args := f.where()
	query := `SELECT ` + recordColumns + ` FROM admission_records` + where + ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	records := make([]entity.AdmissionRecord, 0)
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...)
	return records, translate(err, "search admission records")
}

func (r *AdmissionRepository) GetByID(ctx context.Context, id int) (*entity.AdmissionRecord, error) {
	var rec entity.AdmissionRecord
	err := r.db.GetContext(ctx, &rec, `SELECT `+recordColumns+` FROM admission_records WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get admission record")
	}
	return &rec, nil
}

// List страница для админки, keyword ищется в названии вуза.
func (r *AdmissionRepository) List(ctx context.Context, keyword string, page, pageSize int) (entity.Page[entity.AdmissionRecord], error) {
	result := entity.Page[entity.AdmissionRecord]{Page: page, PageSize: pageSize}

	where, args := RecordFilter{College: keyword}.where()
	if err := r.db.GetContext(ctx, &result.Total, r.db.Rebind(`SELECT COUNT(*) FROM admission_records`+where), args...); err != nil {
		return result, translate(err, "count admission page")
	}

	query := `SELECT ` + recordColumns + ` FROM admission_records` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	result.Items = make([]entity.AdmissionRecord, 0, pageSize)
	err := r.db.SelectContext(ctx, &result.Items, r.db.Rebind(query), args...)
	return result, translate(err, "list admission page")
}

func (r *AdmissionRepository) Create(ctx context.Context, rec *entity.AdmissionRecord) error {
	stmt, err := r.db.PrepareNamedContext(ctx, insertRecordSQL+` RETURNING id`)
	if err != nil {
		return translate(err, "prepare insert record")
	}
	defer stmt.Close()

	return translate(stmt.GetContext(ctx, &rec.ID, rec), "insert record")
}

// InsertBatch вставляет пачку одной транзакцией: либо вся пачка, либо ничего.
func (r *AdmissionRepository) InsertBatch(ctx context.Context, recs []entity.AdmissionRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "begin batch")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertRecordSQL, recs); err != nil {
		return translate(err, "insert batch")
	}
	return translate(tx.Commit(), "commit batch")
}

func (r *AdmissionRepository) Update(ctx context.Context, rec *entity.AdmissionRecord) error {
	res, err := r.db.NamedExecContext(ctx, updateRecordSQL, rec)
	if err != nil {
		return translate(err, "update record")
	}
	return expectRow(res.RowsAffected())
}

func (r *AdmissionRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admission_records WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete record")
	}
	return expectRow(res.RowsAffected())
}

func (r *AdmissionRepository) ByCollege(ctx context.Context, name string) ([]entity.AdmissionRecord, error) {
	records := make([]entity.AdmissionRecord, 0)
	err := r.db.SelectContext(ctx, &records,
		`SELECT `+recordColumns+` FROM admission_records WHERE college_name = $1 ORDER BY id`, name)
	return records, translate(err, "records by college")
}

func (r *AdmissionRepository) ByMajor(ctx context.Context, name string) ([]entity.AdmissionRecord, error) {
	records := make([]entity.AdmissionRecord, 0)
	err := r.db.SelectContext(ctx, &records,
		`SELECT `+recordColumns+` FROM admission_records WHERE major_name = $1 ORDER BY id`, name)
	return records, translate(err, "records by major")
}

// Colleges список вузов с количеством записей
func (r *AdmissionRepository) Colleges(ctx context.Context, keyword string) ([]entity.CollegeSummary, error) {
	where, args := RecordFilter{College: keyword}.where()
	query := `
		SELECT college_name, MIN(college_code) AS college_code, MIN(city) AS city, COUNT(id) AS cnt
		FROM admission_records` + where + `
		GROUP BY college_name
		ORDER BY MIN(id)`

	rows := make([]entity.CollegeSummary, 0)
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	return rows, translate(err, "list colleges")
}

// Majors список специальностей с количеством вузов
func (r *AdmissionRepository) Majors(ctx context.Context, keyword string) ([]entity.MajorSummary, error) {
	where, args := RecordFilter{Major: keyword}.where()
	query := `
		SELECT major_name, MIN(major_code) AS major_code, COUNT(id) AS cnt
		FROM admission_records` + where + `
		GROUP BY major_name
		ORDER BY MIN(id)`

	rows := make([]entity.MajorSummary, 0)
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	return rows, translate(err, "list majors")
}

// WithImportLock исключает параллельный импорт из нескольких процессов.
func (r *AdmissionRepository) WithImportLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithAdvisoryLock(ctx, r.db, database.ImportLockKey, fn)
}

func (r *AdmissionRepository) RecordImportRun(ctx context.Context, source string, accepted, skipped int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_runs (source, accepted, skipped) VALUES ($1, $2, $3)`,
		source, accepted, skipped)
	return translate(err, "record import run")
}

func expectRow(n int64, err error) error {
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
