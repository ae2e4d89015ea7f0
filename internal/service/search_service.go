package service

import (
	"context"
	"fmt"
	"sort"

	"gaokao/internal/entity"
	"gaokao/internal/probability"
	"gaokao/internal/repository"
)

const (
	// SearchLimit максимум строк в выдаче поиска
	SearchLimit = 100

	AnalysisWindow = 25
	AnalysisTop    = 30
)

type RecordFinder interface {
	Search(ctx context.Context, f repository.RecordFilter, limit int) ([]entity.AdmissionRecord, error)
}

type SearchQuery struct {
	College     string
	Major       string
	Category    string
	Requirement string
	Score       int
}

func (q SearchQuery) filter() repository.RecordFilter {
	return repository.RecordFilter{
		College:     q.College,
		Major:       q.Major,
		Category:    q.Category,
		Requirement: q.Requirement,
	}
}

type AnalysisQuery struct {
	Score    int
	College  string
	Major    string
	Category string
}

type SearchService struct {
	records RecordFinder
}

func NewSearchService(records RecordFinder) *SearchService {
	return &SearchService{records: records}
}

// Search ищет записи и, если задан балл, проставляет вероятность.
// Вероятность считается заново на каждый запрос и в базу не пишется.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) ([]entity.AdmissionRecord, error) {
	records, err := s.records.Search(ctx, q.filter(), SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	for i := range records {
		if q.Score > 0 {
			records[i].Probability = probability.ForRecord(q.Score, records[i])
		} else {
			records[i].Probability = probability.NoData
		}
	}
	return records, nil
}

// Analyze записи, у которых средний балл в пределах ±25 от балла пользователя,
// по убыванию вероятности, не больше 30.
func (s *SearchService) Analyze(ctx context.Context, q AnalysisQuery) ([]entity.AnalysisPoint, error) {
	if q.Score <= 0 {
		return nil, nil
	}

	f := repository.RecordFilter{
		College:  q.College,
		Major:    q.Major,
		Category: q.Category,
		Scores:   &repository.ScoreRange{From: q.Score - AnalysisWindow, To: q.Score + AnalysisWindow},
	}
	records, err := s.records.Search(ctx, f, 0)
	if err != nil {
		return nil, fmt.Errorf("analysis records: %w", err)
	}

	points := make([]entity.AnalysisPoint, 0, len(records))
	for _, r := range records {
		points = append(points, entity.AnalysisPoint{
			College:     r.CollegeName,
			Major:       r.MajorName,
			Probability: probability.ForRecord(q.Score, r),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Probability > points[j].Probability
	})
	if len(points) > AnalysisTop {
		points = points[:AnalysisTop]
	}
	return points, nil
}
