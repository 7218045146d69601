package export

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/Spok95/edu-platform/internal/db"
)

func TestGroupStatisticsSheet(t *testing.T) {
	rows := []db.StatRow{
		{
			StudentID: 1, FullName: "Иванов Иван", Email: "ivanov@example.com",
			VariantID:     sql.NullInt64{Int64: 10, Valid: true},
			HomeworkTitle: sql.NullString{String: "ДЗ №1", Valid: true},
			VariantStatus: sql.NullString{String: "submitted", Valid: true},
			TotalTasks:    4, SubmittedTasks: 2, CurrentScore: 150,
		},
		{StudentID: 2, FullName: "Петров Пётр", Email: "petrov@example.com"},
	}

	sheet := GroupStatisticsSheet("11А", rows)
	if sheet.Title != "11А" {
		t.Fatalf("неожиданное имя листа: %q", sheet.Title)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("ожидали 2 строки, получили %d", len(sheet.Rows))
	}
	if sheet.Rows[0][3] != "Сдано" {
		t.Fatalf("статус не переведён: %q", sheet.Rows[0][3])
	}
	// студент без варианта — прочерки и нули
	if sheet.Rows[1][2] != "—" || sheet.Rows[1][4] != "0" {
		t.Fatalf("пустой вариант оформлен неверно: %v", sheet.Rows[1])
	}

	wb, err := NewWorkbook([]SheetSpec{sheet})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := wb.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("пустой xlsx")
	}
}

func TestSheetTitle_Limits(t *testing.T) {
	long := "Очень длинное название группы, которое не влезает в лимит"
	if got := sheetTitle(long); len([]rune(got)) > 31 {
		t.Fatalf("имя листа длиннее 31 символа: %q", got)
	}
	if got := sheetTitle("11/А:Б"); got != "11_А_Б" {
		t.Fatalf("запрещённые символы не вычищены: %q", got)
	}
}

func TestBuildStatisticsFilename(t *testing.T) {
	if got := BuildStatisticsFilename("11/А"); got != "Статистика — 11_А.xlsx" {
		t.Fatalf("неожиданное имя файла: %q", got)
	}
}
