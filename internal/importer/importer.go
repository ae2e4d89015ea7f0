package importer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"gaokao/internal/entity"
)

const (
	// HeaderRow индекс строки заголовков (с нуля); строки 0 и 1 занимают название и пояснения.
	HeaderRow        = 2
	DefaultBatchSize = 100
)

type Store interface {
	Count(ctx context.Context) (int64, error)
	InsertBatch(ctx context.Context, recs []entity.AdmissionRecord) error
	Create(ctx context.Context, rec *entity.AdmissionRecord) error
	WithImportLock(ctx context.Context, fn func(ctx context.Context) error) error
	RecordImportRun(ctx context.Context, source string, accepted, skipped int) error
}

type Skip struct {
	Row    int
	Reason SkipReason
	Detail string
}

// Summary итог импорта. Ran=false значит импорт не запускался (база не пустая или нет файла).
type Summary struct {
	Source   string
	Ran      bool
	Accepted int
	Skipped  int
	Reasons  map[SkipReason]int
	Skips    []Skip
}

func (s *Summary) skip(row int, reason SkipReason, detail string) {
	if s.Reasons == nil {
		s.Reasons = make(map[SkipReason]int)
	}
	s.Skipped++
	s.Reasons[reason]++
	s.Skips = append(s.Skips, Skip{Row: row, Reason: reason, Detail: detail})
}

type Importer struct {
	store     Store
	batchSize int
}

func New(store Store, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: store, batchSize: batchSize}
}

// Run импортирует источник, только если таблица записей пуста.
// Проверка и сам импорт идут под advisory-локом, поэтому два процесса не задвоят данные.
func (im *Importer) Run(ctx context.Context, src Source) (Summary, error) {
	summary := Summary{Source: src.Name()}

	err := im.store.WithImportLock(ctx, func(ctx context.Context) error {
		n, err := im.store.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			zap.L().Info("admission records already present, import skipped", zap.Int64("count", n))
			return nil
		}

		rows, err := src.Rows()
		if errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("import source not found, nothing to import", zap.String("source", src.Name()))
			return nil
		}
		if err != nil {
			return err
		}

		summary.Ran = true
		return im.importRows(ctx, rows, &summary)
	})
	if err != nil {
		return summary, fmt.Errorf("import %s: %w", src.Name(), err)
	}

	if summary.Ran {
		zap.L().Info("import finished",
			zap.String("source", summary.Source),
			zap.Int("accepted", summary.Accepted),
			zap.Int("skipped", summary.Skipped),
			zap.Any("reasons", summary.Reasons))
		if err := im.store.RecordImportRun(ctx, summary.Source, summary.Accepted, summary.Skipped); err != nil {
			zap.L().Warn("record import run failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, summary *Summary) error {
	if len(rows) <= HeaderRow {
		zap.L().Warn("import source has no header row", zap.Int("rows", len(rows)))
		return nil
	}
	header := NewHeader(rows[HeaderRow])
	if _, ok := header[ColCollegeName]; !ok {
		return fmt.Errorf("header row has no %q column", ColCollegeName)
	}

	batch := make([]entity.AdmissionRecord, 0, im.batchSize)
	numbers := make([]int, 0, im.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := im.store.InsertBatch(ctx, batch); err == nil {
			summary.Accepted += len(batch)
		} else {
			// пачка откатилась целиком, пробуем по одной строке
			zap.L().Warn("batch insert failed, retrying row by row", zap.Int("size", len(batch)), zap.Error(err))
			for i := range batch {
				if err := im.store.Create(ctx, &batch[i]); err != nil {
					zap.L().Warn("row insert failed", zap.Int("row", numbers[i]), zap.Error(err))
					summary.skip(numbers[i], ReasonInsertFailed, err.Error())
					continue
				}
				summary.Accepted++
			}
		}
		batch = batch[:0]
		numbers = numbers[:0]
	}

	for i := HeaderRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			// незакоммиченная пачка отбрасывается, прошлые пачки уже в базе
			zap.L().Warn("import interrupted", zap.Int("row", i+1), zap.Int("pending", len(batch)), zap.Int("accepted", summary.Accepted))
			return err
		}

		row := NewRow(i+1, header, rows[i])
		res := ParseRow(row)
		if !res.Imported() {
			if res.Skip != ReasonMissingCollege {
				zap.L().Warn("row skipped", zap.Int("row", row.Number), zap.String("reason", string(res.Skip)), zap.String("detail", res.Detail))
			}
			summary.skip(row.Number, res.Skip, res.Detail)
			continue
		}

		batch = append(batch, res.Record)
		numbers = append(numbers, row.Number)
		if len(batch) >= im.batchSize {
			flush()
		}
	}
	flush()
	return nil
}
