package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type GuideKind string

const (
	GuideFilling GuideKind = "guide"
	GuideTips    GuideKind = "skill"
)

// GuideService тексты «填报指南» и «志愿技巧» из файлов рядом с приложением.
type GuideService struct {
	paths map[GuideKind]string
}

func NewGuideService(guideFile, tipsFile string) *GuideService {
	return &GuideService{paths: map[GuideKind]string{
		GuideFilling: guideFile,
		GuideTips:    tipsFile,
	}}
}

// Read возвращает текст; ok=false если файла нет.
func (s *GuideService) Read(kind GuideKind) (string, bool, error) {
	path, known := s.paths[kind]
	if !known || path == "" {
		return "", false, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), true, nil
}
