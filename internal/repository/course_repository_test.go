package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCourseByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "lecturer_id", "budget_allocated", "budget_used", "active", "created_at", "updated_at"}).
		AddRow("course-1", "COMP1511", "Programming Fundamentals", "lect-1", "10000", "9950", true, now, now)
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id = \\$1 LIMIT 1").
		WithArgs("course-1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "COMP1511", course.Code)
	assert.True(t, course.BudgetRemaining().Equal(decimal.NewFromInt(50)))
	assert.False(t, course.CanAfford(decimal.NewFromInt(450)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByIDAndLecturer(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("course-1", "lect-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	owned, err := repo.ExistsByIDAndLecturer(context.Background(), "course-1", "lect-1")
	require.NoError(t, err)
	assert.False(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBudgetUsed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE courses SET budget_used = budget_used \\+ \\$2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.AdjustBudgetUsed(context.Background(), tx, "course-1", decimal.RequireFromString("175.94"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBudgetUsedMissingCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE courses SET budget_used").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.AdjustBudgetUsed(context.Background(), tx, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
