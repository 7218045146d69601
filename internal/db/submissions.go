package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type AnswerPayload struct {
	Text      string
	FileURL   string
	Code      string
	ImageURL  string
	TableJSON string
}

// Trim срезает краевые пробелы во всех полях: ответ из одних пробелов
// равен пустому и в базу не попадает.
func (p AnswerPayload) Trim() AnswerPayload {
	return AnswerPayload{
		Text:      strings.TrimSpace(p.Text),
		FileURL:   strings.TrimSpace(p.FileURL),
		Code:      strings.TrimSpace(p.Code),
		ImageURL:  strings.TrimSpace(p.ImageURL),
		TableJSON: strings.TrimSpace(p.TableJSON),
	}
}

func (p AnswerPayload) Empty() bool {
	return p.Text == "" && p.FileURL == "" && p.Code == "" && p.ImageURL == "" && p.TableJSON == ""
}

type SubmissionInfo struct {
	ID        int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetVariantItemOwner — student_id варианта, которому принадлежит item;
// (0, nil), если item не существует.
func GetVariantItemOwner(ctx context.Context, database *sql.DB, variantItemID int64) (int64, error) {
	var ownerID int64
	err := database.QueryRowContext(ctx, `
		SELECT hv.student_id
		FROM variant_items vi
		JOIN homework_variants hv ON hv.id = vi.variant_id
		WHERE vi.id = $1
	`, variantItemID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ownerID, nil
}

// UpsertSubmission — сдача ответа. Повторная сдача перезаписывает ВСЕ
// поля ответа, сбрасывает статус в submitted и обновляет updated_at;
// score и checked-статус здесь не выставляются никогда — это делает
// внешний процесс проверки. Ключ (variant_item_id, student_id) закрыт
// уникальным индексом, поэтому гонка двух сдач не плодит строк.
func UpsertSubmission(ctx context.Context, database *sql.DB, studentID, variantItemID int64, p AnswerPayload) (*SubmissionInfo, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO submissions (
			student_id, variant_item_id,
			answer_text, answer_file_url, answer_code, answer_image_url, answer_table_json,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'submitted')
		ON CONFLICT (variant_item_id, student_id) DO UPDATE SET
			answer_text = excluded.answer_text,
			answer_file_url = excluded.answer_file_url,
			answer_code = excluded.answer_code,
			answer_image_url = excluded.answer_image_url,
			answer_table_json = excluded.answer_table_json,
			status = 'submitted',
			updated_at = now()
		RETURNING id, status, created_at, updated_at
	`, studentID, variantItemID, p.Text, p.FileURL, p.Code, p.ImageURL, p.TableJSON)

	var s SubmissionInfo
	if err := row.Scan(&s.ID, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
