package db_test

import (
	"testing"

	"github.com/Spok95/edu-platform/internal/db"
)

func TestAnswerPayload_TrimEmpty(t *testing.T) {
	blank := db.AnswerPayload{Text: "   \t  ", Code: "\n\n"}
	if !blank.Trim().Empty() {
		t.Fatal("пробельный ответ должен считаться пустым")
	}

	p := db.AnswerPayload{Text: "  ответ  ", FileURL: "   "}.Trim()
	if p.Empty() {
		t.Fatal("непустой ответ посчитан пустым")
	}
	if p.Text != "ответ" || p.FileURL != "" {
		t.Fatalf("краевые пробелы не срезаны: %+v", p)
	}
}
