package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentFeeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentFeeRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newStudentFeeRepoMock(t)
	defer cleanup()
	repo := NewStudentFeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "fee_structure_id", "school_id", "total_amount", "paid_amount", "balance", "due_date", "created_at", "updated_at"}).
		AddRow("sfa-1", "stu-1", "fs-1", "school-1", "500", "100", "400", now, now, now).
		AddRow("sfa-2", "stu-1", "fs-2", "school-1", "200", "0", "200", now, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM student_fees WHERE student_id = \$1 ORDER BY created_at, id`).
		WithArgs("stu-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "fs-1", assignments[0].FeeStructureID)
	assert.True(t, assignments[1].Balance.Equal(assignments[1].TotalAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFeeRepositoryListOutstanding(t *testing.T) {
	db, mock, cleanup := newStudentFeeRepoMock(t)
	defer cleanup()
	repo := NewStudentFeeRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "full_name", "admission_no", "batch_label", "total_outstanding", "is_overdue"}).
		AddRow("stu-1", "Amina Yusuf", "ADM-001", "2026-A", "350", true).
		AddRow("stu-2", "Bilal Khan", "ADM-002", "2026-A", "80", false)
	mock.ExpectQuery(`SELECT s\.id AS student_id, s\.full_name, s\.admission_no, s\.batch_label`).
		WithArgs("school-1").
		WillReturnRows(rows)

	students, err := repo.ListOutstanding(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.True(t, students[0].IsOverdue)
	assert.True(t, students[0].TotalOutstanding.GreaterThan(students[1].TotalOutstanding))
	assert.NoError(t, mock.ExpectationsWereMet())
}
