//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/models"
	"github.com/Spok95/edu-platform/internal/testutil/testdb"
)

func mustSeedUser(t *testing.T, dbx *sql.DB, name, email string, role models.Role) int64 {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO users (full_name, email, password_hash, role)
		VALUES ($1, $2, 'x', $3)
		RETURNING id`, name, email, string(role)).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustSeedTask(t *testing.T, ctx context.Context, dbx *sql.DB, teacherID int64, title string) int64 {
	t.Helper()
	task, err := db.CreateTask(ctx, dbx, models.Task{
		Title: title, Text: "текст", Difficulty: 1, Type: "text", EgeNumber: 1, CreatedBy: teacherID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return task.ID
}

// Раздача: на каждого студента по варианту, в варианте — все задачи
// набора в порядке добавления; повторная раздача ничего не плодит.
func TestAssignSetToGroup_FanOutAndIdempotency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, err := db.CreateGroup(ctx, h.DB, teacherID, "11А")
	if err != nil {
		t.Fatal(err)
	}

	const nStudents, nTasks = 3, 4
	for i := 0; i < nStudents; i++ {
		sid := mustSeedUser(t, h.DB, fmt.Sprintf("Студент %d", i),
			fmt.Sprintf("s%d@example.com", i), models.Student)
		if _, err := db.Enroll(ctx, h.DB, g.ID, sid); err != nil {
			t.Fatal(err)
		}
	}

	taskIDs := make([]int64, 0, nTasks)
	for i := 0; i < nTasks; i++ {
		taskIDs = append(taskIDs, mustSeedTask(t, ctx, h.DB, teacherID, fmt.Sprintf("Задача %d", i)))
	}
	set, err := db.CreateHomeworkSet(ctx, h.DB, teacherID, "Набор", "", taskIDs)
	if err != nil {
		t.Fatal(err)
	}

	res, err := db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.VariantsCreated != nStudents || res.TotalStudents != nStudents {
		t.Fatalf("ожидали %d/%d, получили %+v", nStudents, nStudents, res)
	}

	var items int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM variant_items`).Scan(&items); err != nil {
		t.Fatal(err)
	}
	if items != nStudents*nTasks {
		t.Fatalf("ожидали %d variant_items, получили %d", nStudents*nTasks, items)
	}

	// порядок задач внутри варианта совпадает с порядком в наборе
	var variantID int64
	if err := h.DB.QueryRow(`SELECT id FROM homework_variants LIMIT 1`).Scan(&variantID); err != nil {
		t.Fatal(err)
	}
	rows, err := h.DB.Query(`SELECT task_id FROM variant_items WHERE variant_id = $1 ORDER BY id`, variantID)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var got []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			t.Fatal(err)
		}
		got = append(got, id)
	}
	for i := range taskIDs {
		if got[i] != taskIDs[i] {
			t.Fatalf("порядок задач нарушен: ожидали %v, получили %v", taskIDs, got)
		}
	}

	// повторная раздача — ноль новых вариантов, счётчики те же
	res2, err := db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res2.VariantsCreated != 0 || res2.TotalStudents != nStudents {
		t.Fatalf("повторная раздача: ожидали 0/%d, получили %+v", nStudents, res2)
	}
	var variants int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM homework_variants`).Scan(&variants); err != nil {
		t.Fatal(err)
	}
	if variants != nStudents {
		t.Fatalf("дубли вариантов: %d", variants)
	}
}

// Новый студент в группе получает вариант при повторной раздаче,
// старые не трогаются.
func TestAssignSetToGroup_FillsGaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, _ := db.CreateGroup(ctx, h.DB, teacherID, "11Б")
	s1 := mustSeedUser(t, h.DB, "Первый", "s1@example.com", models.Student)
	if _, err := db.Enroll(ctx, h.DB, g.ID, s1); err != nil {
		t.Fatal(err)
	}
	taskID := mustSeedTask(t, ctx, h.DB, teacherID, "Задача")
	set, _ := db.CreateHomeworkSet(ctx, h.DB, teacherID, "Набор", "", []int64{taskID})

	if _, err := db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID); err != nil {
		t.Fatal(err)
	}

	s2 := mustSeedUser(t, h.DB, "Второй", "s2@example.com", models.Student)
	if _, err := db.Enroll(ctx, h.DB, g.ID, s2); err != nil {
		t.Fatal(err)
	}

	res, err := db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.VariantsCreated != 1 || res.TotalStudents != 2 {
		t.Fatalf("ожидали 1/2, получили %+v", res)
	}
}

// Параллельная раздача одного набора одной группе: уникальный индекс
// гасит гонку, дублей не появляется.
func TestAssignSetToGroup_Concurrent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, _ := db.CreateGroup(ctx, h.DB, teacherID, "11В")
	for i := 0; i < 5; i++ {
		sid := mustSeedUser(t, h.DB, fmt.Sprintf("С%d", i), fmt.Sprintf("c%d@example.com", i), models.Student)
		if _, err := db.Enroll(ctx, h.DB, g.ID, sid); err != nil {
			t.Fatal(err)
		}
	}
	taskID := mustSeedTask(t, ctx, h.DB, teacherID, "Задача")
	set, _ := db.CreateHomeworkSet(ctx, h.DB, teacherID, "Набор", "", []int64{taskID})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID)
		}()
	}
	wg.Wait()

	var variants int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM homework_variants`).Scan(&variants); err != nil {
		t.Fatal(err)
	}
	if variants != 5 {
		t.Fatalf("ожидали 5 вариантов, получили %d", variants)
	}
}

// Повторная сдача того же задания — та же строка, поля перезаписаны.
func TestUpsertSubmission_SecondWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, _ := db.CreateGroup(ctx, h.DB, teacherID, "11Г")
	studentID := mustSeedUser(t, h.DB, "Студент", "s@example.com", models.Student)
	if _, err := db.Enroll(ctx, h.DB, g.ID, studentID); err != nil {
		t.Fatal(err)
	}
	taskID := mustSeedTask(t, ctx, h.DB, teacherID, "Задача")
	set, _ := db.CreateHomeworkSet(ctx, h.DB, teacherID, "Набор", "", []int64{taskID})
	if _, err := db.AssignSetToGroup(ctx, h.DB, set.ID, g.ID); err != nil {
		t.Fatal(err)
	}

	var itemID int64
	if err := h.DB.QueryRow(`SELECT id FROM variant_items LIMIT 1`).Scan(&itemID); err != nil {
		t.Fatal(err)
	}

	first, err := db.UpsertSubmission(ctx, h.DB, studentID, itemID, db.AnswerPayload{Text: "черновик"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.UpsertSubmission(ctx, h.DB, studentID, itemID,
		db.AnswerPayload{Code: "print(42)"})
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Fatalf("повторная сдача создала новую строку: %d != %d", first.ID, second.ID)
	}
	var count int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("ожидали одну строку submissions, получили %d", count)
	}

	var text, code, status string
	err = h.DB.QueryRow(`SELECT answer_text, answer_code, status FROM submissions WHERE id = $1`,
		second.ID).Scan(&text, &code, &status)
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || code != "print(42)" || status != "submitted" {
		t.Fatalf("вторая сдача не перезаписала первую: text=%q code=%q status=%q", text, code, status)
	}
}

func TestEnroll_Duplicate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, _ := db.CreateGroup(ctx, h.DB, teacherID, "11Д")
	studentID := mustSeedUser(t, h.DB, "Студент", "s@example.com", models.Student)

	if _, err := db.Enroll(ctx, h.DB, g.ID, studentID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Enroll(ctx, h.DB, g.ID, studentID); !errors.Is(err, db.ErrAlreadyEnrolled) {
		t.Fatalf("ожидали ErrAlreadyEnrolled, получили %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	u := models.User{FullName: "Иванов", Email: "dup@example.com", PasswordHash: "x", Role: models.Student}
	if _, err := db.CreateUser(ctx, h.DB, u); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUser(ctx, h.DB, u); !errors.Is(err, db.ErrEmailTaken) {
		t.Fatalf("ожидали ErrEmailTaken, получили %v", err)
	}
}

// Студент без единого варианта всё равно попадает в статистику —
// с NULL-полями варианта и нулевыми счётчиками.
func TestGroupStatistics_StudentWithoutVariant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID := mustSeedUser(t, h.DB, "Учитель", "t@example.com", models.Teacher)
	g, _ := db.CreateGroup(ctx, h.DB, teacherID, "11Е")
	studentID := mustSeedUser(t, h.DB, "Новенький", "new@example.com", models.Student)
	if _, err := db.Enroll(ctx, h.DB, g.ID, studentID); err != nil {
		t.Fatal(err)
	}

	stats, err := db.GroupStatistics(ctx, h.DB, g.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 {
		t.Fatalf("ожидали одну строку, получили %d", len(stats))
	}
	row := stats[0]
	if row.StudentID != studentID || row.VariantID.Valid {
		t.Fatalf("ожидали строку без варианта, получили %+v", row)
	}
	if row.TotalTasks != 0 || row.SubmittedTasks != 0 || row.CurrentScore != 0 {
		t.Fatalf("счётчики должны быть нулевыми: %+v", row)
	}
}

// Набор с чужой задачей не создаётся вовсе.
func TestCreateHomeworkSet_ForeignTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	t1 := mustSeedUser(t, h.DB, "Свой", "own@example.com", models.Teacher)
	t2 := mustSeedUser(t, h.DB, "Чужой", "other@example.com", models.Teacher)
	ownTask := mustSeedTask(t, ctx, h.DB, t1, "Своя")
	foreignTask := mustSeedTask(t, ctx, h.DB, t2, "Чужая")

	_, err = db.CreateHomeworkSet(ctx, h.DB, t1, "Набор", "", []int64{ownTask, foreignTask})
	if !errors.Is(err, db.ErrForeignTasks) {
		t.Fatalf("ожидали ErrForeignTasks, получили %v", err)
	}
	var sets int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM homework_sets`).Scan(&sets); err != nil {
		t.Fatal(err)
	}
	if sets != 0 {
		t.Fatalf("набор не должен был сохраниться, в базе %d", sets)
	}
}
