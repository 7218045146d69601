package export

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/edu-platform/internal/db"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

type Workbook struct {
	File *excelize.File
}

func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	f := excelize.NewFile()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		// заголовки
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		// стиль заголовков + автофильтр
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		// строки
		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// эвристическая ширина: по длине заголовка и первых строк
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return &Workbook{File: f}, nil
}

func (w *Workbook) WriteTo(dst io.Writer) error {
	return w.File.Write(dst)
}

var statHeader = []string{
	"Студент", "Email", "Домашнее задание", "Статус",
	"Задач", "Сдано", "Баллы", "Итоговая оценка",
}

// GroupStatisticsSheet переводит строки статистики в лист. Студент без
// единого варианта попадает в лист с прочерками вместо данных варианта.
func GroupStatisticsSheet(groupName string, stats []db.StatRow) SheetSpec {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		row := []string{s.FullName, s.Email, "—", "—", "0", "0", "0", "—"}
		if s.VariantID.Valid {
			row[2] = s.HomeworkTitle.String
			row[3] = statusLabel(s.VariantStatus.String)
			row[4] = strconv.Itoa(s.TotalTasks)
			row[5] = strconv.Itoa(s.SubmittedTasks)
			row[6] = strconv.Itoa(s.CurrentScore)
			if s.FinalScore.Valid {
				row[7] = strconv.FormatInt(s.FinalScore.Int64, 10)
			}
		}
		rows = append(rows, row)
	}
	return SheetSpec{Title: sheetTitle(groupName), Header: statHeader, Rows: rows}
}

func BuildStatisticsFilename(groupName string) string {
	return sanitizeFileName(fmt.Sprintf("Статистика — %s.xlsx", cleanName(groupName)))
}

func statusLabel(status string) string {
	switch status {
	case "assigned":
		return "Назначено"
	case "submitted":
		return "Сдано"
	case "checked":
		return "Проверено"
	}
	return status
}

// sheetTitle режет имя под лимит Excel (31 символ) и убирает запрещённые знаки.
func sheetTitle(s string) string {
	s = invalidSheetRe.ReplaceAllString(cleanName(s), "_")
	r := []rune(s)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

// helpers

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var (
	invalidFileRe  = regexp.MustCompile(`[\\/:*?"<>|]+`)
	invalidSheetRe = regexp.MustCompile(`[\\/:*?\[\]]+`)
)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "—"
	}
	return s
}
