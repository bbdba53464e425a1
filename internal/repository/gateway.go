package repository

import (
	"context"
	"time"

	taskerrors "taskboard-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The chat subsystem shares a database with the project-management
// application but owns none of its tables. Projects, teams and tasks are
// reached through the read-only gateway interfaces below.

// ProjectDirectory resolves a project's chat membership: the union of all
// team rosters attached to the project.
type ProjectDirectory interface {
	ProjectTeamMembers(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
}

// Task is the slice of a task the deadline scan needs.
type Task struct {
	ID        uuid.UUID
	Title     string
	DueAt     time.Time
	Assignees []uuid.UUID
}

// TaskSource lists tasks with a due time inside a window whose status is
// not terminal.
type TaskSource interface {
	DueTasks(ctx context.Context, from, to time.Time) ([]Task, error)
}

type PostgresDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) ProjectTeamMembers(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var exists int64
	if err := d.db.WithContext(ctx).
		Table("projects").
		Where("id = ?", projectID).
		Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, taskerrors.ErrNotFound
	}

	var memberIDs []uuid.UUID
	err := d.db.WithContext(ctx).
		Table("team_members").
		Select("DISTINCT team_members.user_id").
		Joins("JOIN project_teams ON project_teams.team_id = team_members.team_id").
		Where("project_teams.project_id = ?", projectID).
		Scan(&memberIDs).Error
	if err != nil {
		return nil, err
	}
	return memberIDs, nil
}

type taskRow struct {
	ID    uuid.UUID
	Title string
	DueAt time.Time
}

// Task statuses the scan skips.
var terminalStatuses = []string{"DONE", "CANCELLED"}

func (d *PostgresDirectory) DueTasks(ctx context.Context, from, to time.Time) ([]Task, error) {
	var rows []taskRow
	err := d.db.WithContext(ctx).
		Table("tasks").
		Select("id, title, due_at").
		Where("due_at >= ? AND due_at < ? AND status NOT IN ?", from, to, terminalStatuses).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(rows))
	for _, row := range rows {
		var assignees []uuid.UUID
		err := d.db.WithContext(ctx).
			Table("task_assignees").
			Select("user_id").
			Where("task_id = ?", row.ID).
			Scan(&assignees).Error
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, Task{
			ID:        row.ID,
			Title:     row.Title,
			DueAt:     row.DueAt,
			Assignees: assignees,
		})
	}
	return tasks, nil
}
