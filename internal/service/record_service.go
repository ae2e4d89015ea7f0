package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gaokao/internal/entity"
	"gaokao/internal/repository"
)

const AdminPageSize = 20

type RecordStore interface {
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int) (*entity.AdmissionRecord, error)
	List(ctx context.Context, keyword string, page, pageSize int) (entity.Page[entity.AdmissionRecord], error)
	Create(ctx context.Context, rec *entity.AdmissionRecord) error
	Update(ctx context.Context, rec *entity.AdmissionRecord) error
	Delete(ctx context.Context, id int) error
}

// RecordService управление записями из админки. Все методы требуют администратора.
type RecordService struct {
	records RecordStore
}

func NewRecordService(records RecordStore) *RecordService {
	return &RecordService{records: records}
}

func (s *RecordService) List(ctx context.Context, actor Actor, keyword string, page int) (entity.Page[entity.AdmissionRecord], error) {
	if err := requireAdmin(actor); err != nil {
		return entity.Page[entity.AdmissionRecord]{}, err
	}
	if page < 1 {
		page = 1
	}
	p, err := s.records.List(ctx, strings.TrimSpace(keyword), page, AdminPageSize)
	if err != nil {
		return p, fmt.Errorf("list records: %w", err)
	}
	return p, nil
}

func (s *RecordService) Get(ctx context.Context, actor Actor, id int) (*entity.AdmissionRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rec, err := s.records.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (s *RecordService) Create(ctx context.Context, actor Actor, rec *entity.AdmissionRecord) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	normalize(rec)
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	zap.L().Info("record created", zap.String("by", actor.Username), zap.Int("id", rec.ID))
	return nil
}

func (s *RecordService) Update(ctx context.Context, actor Actor, id int, rec *entity.AdmissionRecord) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	rec.ID = id
	normalize(rec)
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update record %d: %w", id, err)
	}
	zap.L().Info("record updated", zap.String("by", actor.Username), zap.Int("id", id))
	return nil
}

func (s *RecordService) Delete(ctx context.Context, actor Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	zap.L().Info("record deleted", zap.String("by", actor.Username), zap.Int("id", id))
	return nil
}

func (s *RecordService) CountRecords(ctx context.Context) (int64, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func normalize(rec *entity.AdmissionRecord) {
	rec.Probability = 0
	for _, f := range []*string{
		&rec.Year, &rec.Batch, &rec.Category, &rec.Requirement,
		&rec.CollegeName, &rec.CollegeCode, &rec.MajorName, &rec.MajorCode,
		&rec.Tuition, &rec.City,
	} {
		*f = strings.TrimSpace(*f)
	}
	if rec.Year == "" {
		rec.Year = entity.DefaultYear
	}
}
