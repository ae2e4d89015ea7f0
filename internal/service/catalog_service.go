package service

import (
	"context"
	"fmt"

	"gaokao/internal/entity"
)

type CatalogStore interface {
	Colleges(ctx context.Context, keyword string) ([]entity.CollegeSummary, error)
	Majors(ctx context.Context, keyword string) ([]entity.MajorSummary, error)
	ByCollege(ctx context.Context, name string) ([]entity.AdmissionRecord, error)
	ByMajor(ctx context.Context, name string) ([]entity.AdmissionRecord, error)
}

// CollegeDetail вуз и все его записи. Сведения о вузе берутся из первой записи.
type CollegeDetail struct {
	Name    string
	Code    string
	City    string
	Info    string
	Records []entity.AdmissionRecord
}

type MajorDetail struct {
	Name    string
	Code    string
	Info    string
	Records []entity.AdmissionRecord
}

type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Colleges(ctx context.Context, keyword string) ([]entity.CollegeSummary, error) {
	rows, err := s.store.Colleges(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return rows, nil
}

func (s *CatalogService) Majors(ctx context.Context, keyword string) ([]entity.MajorSummary, error) {
	rows, err := s.store.Majors(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("list majors: %w", err)
	}
	return rows, nil
}

func (s *CatalogService) College(ctx context.Context, name string) (*CollegeDetail, error) {
	records, err := s.store.ByCollege(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("college %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	first := records[0]
	return &CollegeDetail{
		Name:    name,
		Code:    first.CollegeCode,
		City:    first.City,
		Info:    first.CollegeInfo,
		Records: records,
	}, nil
}

func (s *CatalogService) Major(ctx context.Context, name string) (*MajorDetail, error) {
	records, err := s.store.ByMajor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("major %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	first := records[0]
	return &MajorDetail{
		Name:    name,
		Code:    first.MajorCode,
		Info:    first.MajorInfo,
		Records: records,
	}, nil
}
