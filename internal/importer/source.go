package importer

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Source откуда берутся строки таблицы.
type Source interface {
	Name() string
	Rows() ([][]string, error)
}

// WorkbookSource первый лист xlsx-файла.
type WorkbookSource struct {
	Path string
}

func (s WorkbookSource) Name() string {
	return s.Path
}

// Rows читает все строки первого листа. Если файла нет, ошибка оборачивает os.ErrNotExist.
func (s WorkbookSource) Rows() ([][]string, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("workbook %s: %w", s.Path, err)
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", s.Path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}
