package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

var taskColumns = []string{
	"id", "user_id", "title", "description", "priority", "category", "due_date", "completed", "completed_at", "created_at",
}

var subtaskColumns = []string{"id", "task_id", "title", "completed", "position"}

func scanTaskRow(row rowScanner) (storage.TaskRow, error) {
	var r storage.TaskRow
	var due, completedAt, createdAt timeValue
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Priority, &r.Category,
		&due, &r.Completed, &completedAt, &createdAt); err != nil {
		return storage.TaskRow{}, err
	}
	r.DueDate = due.Ptr()
	r.CompletedAt = completedAt.Ptr()
	r.CreatedAt = createdAt.Time
	return r, nil
}

// subtasksFor loads subtasks of the user's tasks, optionally narrowed to one
// task, grouped by task id in position order.
func (s *Store) subtasksFor(ctx context.Context, q querier, userID, taskID string) (map[string][]storage.SubtaskRow, error) {
	cols := make([]string, len(subtaskColumns))
	for i, c := range subtaskColumns {
		cols[i] = "s." + c
	}
	where := sq.Eq{"t.user_id": userID}
	if taskID != "" {
		where["t.id"] = taskID
	}

	rows, err := s.query(ctx, q, s.builder().
		Select(cols...).
		From("subtasks s").
		Join("tasks t ON t.id = s.task_id").
		Where(where).
		OrderBy("s.task_id", "s.position"))
	if err != nil {
		return nil, s.mapError(err, "subtasks", userID)
	}
	defer rows.Close()

	out := make(map[string][]storage.SubtaskRow)
	for rows.Next() {
		var r storage.SubtaskRow
		if err := rows.Scan(&r.ID, &r.TaskID, &r.Title, &r.Completed, &r.Position); err != nil {
			return nil, err
		}
		out[r.TaskID] = append(out[r.TaskID], r)
	}
	return out, rows.Err()
}

func (s *Store) getTask(ctx context.Context, q querier, userID, id string) (models.Task, error) {
	row, err := s.queryRow(ctx, q, s.builder().
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return models.Task{}, err
	}
	r, err := scanTaskRow(row)
	if err != nil {
		return models.Task{}, s.mapError(err, "task", id)
	}
	subs, err := s.subtasksFor(ctx, q, userID, id)
	if err != nil {
		return models.Task{}, err
	}
	return storage.MapTask(r, subs[id])
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := s.query(ctx, s.db, s.builder().
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, s.mapError(err, "tasks", userID)
	}

	var taskRows []storage.TaskRow
	for rows.Next() {
		r, err := scanTaskRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		taskRows = append(taskRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := s.subtasksFor(ctx, s.db, userID, "")
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(taskRows))
	for _, r := range taskRows {
		t, err := storage.MapTask(r, subs[r.ID])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) InsertTask(ctx context.Context, userID string, t models.NewTask) (models.Task, error) {
	id := s.NewID()
	var out models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, s.builder().
			Insert("tasks").
			Columns(taskColumns...).
			Values(id, userID, t.Title, t.Description, string(t.Priority), t.Category,
				s.encodeTimePtr(t.DueDate), t.Completed, s.encodeTimePtr(t.CompletedAt), s.encodeTime(s.now()))); err != nil {
			return s.mapError(err, "task", id)
		}

		if len(t.Subtasks) > 0 {
			insert := s.builder().Insert("subtasks").Columns(subtaskColumns...)
			for i, title := range t.Subtasks {
				insert = insert.Values(s.NewID(), id, title, false, i)
			}
			if _, err := s.exec(ctx, tx, insert); err != nil {
				return s.mapError(err, "subtasks of task", id)
			}
		}

		var err error
		out, err = s.getTask(ctx, tx, userID, id)
		return err
	})
	return out, err
}

func (s *Store) taskPatchMap(p models.TaskPatch) map[string]any {
	set := map[string]any{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.ClearDueDate {
		set["due_date"] = nil
	} else if p.DueDate != nil {
		set["due_date"] = s.encodeTime(*p.DueDate)
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.ClearCompletedAt {
		set["completed_at"] = nil
	} else if p.CompletedAt != nil {
		set["completed_at"] = s.encodeTime(*p.CompletedAt)
	}
	return set
}

// UpdateTask writes every patched column in one statement, so completed and
// completed_at always change together.
func (s *Store) UpdateTask(ctx context.Context, userID, id string, p models.TaskPatch) (models.Task, error) {
	set := s.taskPatchMap(p)
	if len(set) == 0 {
		return s.getTask(ctx, s.db, userID, id)
	}

	var out models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.builder().
			Update("tasks").
			SetMap(set).
			Where(sq.Eq{"id": id, "user_id": userID}))
		if err != nil {
			return s.mapError(err, "task", id)
		}
		if err := requireAffected(res, "task", id); err != nil {
			return err
		}
		out, err = s.getTask(ctx, tx, userID, id)
		return err
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.builder().
			Delete("tasks").
			Where(sq.Eq{"id": id, "user_id": userID}))
		if err != nil {
			return s.mapError(err, "task", id)
		}
		if err := requireAffected(res, "task", id); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, s.builder().
			Delete("subtasks").
			Where(sq.Eq{"task_id": id}))
		return s.mapError(err, "subtasks of task", id)
	})
}

func (s *Store) SetSubtaskCompleted(ctx context.Context, userID, taskID, subtaskID string, completed bool) (models.Task, error) {
	var out models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.builder().
			Update("subtasks").
			Set("completed", completed).
			Where(sq.Eq{"id": subtaskID, "task_id": taskID}).
			Where("task_id IN (SELECT id FROM tasks WHERE id = ? AND user_id = ?)", taskID, userID))
		if err != nil {
			return s.mapError(err, "subtask", subtaskID)
		}
		if err := requireAffected(res, "subtask", subtaskID); err != nil {
			return err
		}
		out, err = s.getTask(ctx, tx, userID, taskID)
		return err
	})
	return out, err
}
