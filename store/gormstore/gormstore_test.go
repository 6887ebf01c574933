package gormstore

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Alp4ka/sloth"
)

var tPublished = sloth.NewQuery("article", sloth.Desc("published_at"), sloth.Desc("id")).Where("published", true)

func Test_Store_Scan(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	ts := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	resume, err := sloth.KeysetCursorAfter(tPublished.Sort(), article{ID: "a3", PublishedAt: ts}, articleGetters)
	require.NoError(t, err)

	tests := []struct {
		name          string
		query         sloth.Query
		req           sloth.ScanRequest
		expectedQuery string
		expectedArgs  []driver.Value
	}{
		{
			name:          "first page",
			query:         tPublished,
			req:           sloth.ScanRequest{Limit: 2},
			expectedQuery: "^SELECT \\* FROM [`'\"]articles[`'\"] WHERE published = (?:\\$\\d|\\?) ORDER BY published_at DESC, id DESC LIMIT 2$",
			expectedArgs:  []driver.Value{true},
		},
		{
			name:          "offset page",
			query:         tPublished,
			req:           sloth.ScanRequest{Limit: 2, Offset: 4},
			expectedQuery: "^SELECT \\* FROM [`'\"]articles[`'\"] WHERE published = (?:\\$\\d|\\?) ORDER BY published_at DESC, id DESC LIMIT 2 OFFSET 4$",
			expectedArgs:  []driver.Value{true},
		},
		{
			name:          "resume from keyset cursor",
			query:         tPublished,
			req:           sloth.ScanRequest{Limit: 2, Offset: 4, ResumeFrom: resume.String()},
			expectedQuery: "^SELECT \\* FROM [`'\"]articles[`'\"] WHERE published = (?:\\$\\d|\\?) AND \\(published_at < (?:\\$\\d|\\?) OR \\(published_at = (?:\\$\\d|\\?) AND id < (?:\\$\\d|\\?)\\)\\) ORDER BY published_at DESC, id DESC LIMIT 2$",
			expectedArgs:  []driver.Value{true, sqlmock.AnyArg(), sqlmock.AnyArg(), "a3"},
		},
		{
			name:          "tag membership",
			query:         sloth.NewQuery("article", sloth.Asc("id")).WhereHas("tags", "go"),
			req:           sloth.ScanRequest{Limit: 5},
			expectedQuery: "^SELECT \\* FROM [`'\"]articles[`'\"] WHERE tags LIKE (?:\\$\\d|\\?) ESCAPE '!' ORDER BY id ASC LIMIT 5$",
			expectedArgs:  []driver.Value{"%,go,%"},
		},
		{
			name:          "tag with wildcards",
			query:         sloth.NewQuery("article", sloth.Asc("id")).WhereHas("tags", "a_b%"),
			req:           sloth.ScanRequest{Limit: 5},
			expectedQuery: "^SELECT \\* FROM [`'\"]articles[`'\"] WHERE tags LIKE (?:\\$\\d|\\?) ESCAPE '!' ORDER BY id ASC LIMIT 5$",
			expectedArgs:  []driver.Value{"%,a!_b!%,%"},
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				require.NoError(t, err)

				rows := sqlmock.NewRows(articleColumns).
					AddRow("a2", "Two", true, ",go,", ts.Add(-time.Hour)).
					AddRow("a1", "One", true, ",go,db,", ts.Add(-2*time.Hour))
				dbMock.ExpectQuery(tt.expectedQuery).WithArgs(tt.expectedArgs...).WillReturnRows(rows)

				res, err := New(db, articleGetters).Scan(context.Background(), tt.query, tt.req)
				require.NoError(t, err)
				require.Len(t, res.Items, 2)
				assert.Equal(t, List{"go", "db"}, res.Items[1].Tags)

				want, err := sloth.KeysetCursorAfter(tt.query.Sort(), res.Items[1], articleGetters)
				require.NoError(t, err)
				require.NotNil(t, res.End)
				assert.Equal(t, want.String(), res.End.String())

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_Store_Scan_EmptyHasNoEnd(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	dbMock.ExpectQuery("SELECT \\* FROM `articles`").WillReturnRows(sqlmock.NewRows(articleColumns))

	res, err := New(db, articleGetters).Scan(context.Background(), tPublished, sloth.ScanRequest{Limit: 5, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Nil(t, res.End)
}

func Test_Store_Scan_Errors(t *testing.T) {
	ctx := context.Background()
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)
	s := New(db, articleGetters)

	_, err = s.Scan(ctx, tPublished, sloth.ScanRequest{Limit: 5, ResumeFrom: "@@"})
	assert.Error(t, err)

	_, err = s.Scan(ctx, sloth.NewQuery("article"), sloth.ScanRequest{Limit: 5})
	assert.Error(t, err)

	wrongShape := sloth.NewKeysetCursor(sloth.CursorElement{Column: "id", Value: "x", Operator: sloth.OperatorLT})
	_, err = s.Scan(ctx, tPublished, sloth.ScanRequest{Limit: 5, ResumeFrom: wrongShape.String()})
	assert.Error(t, err)

	dbMock.ExpectQuery("SELECT").WillReturnError(fmt.Errorf("connection reset"))
	_, err = s.Scan(ctx, tPublished, sloth.ScanRequest{Limit: 5})
	assert.ErrorContains(t, err, "connection reset")

	noGetter := New(db, sloth.Getters[article]{})
	dbMock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(articleColumns).AddRow("a1", "One", true, "", time.Now()))
	_, err = noGetter.Scan(ctx, tPublished, sloth.ScanRequest{Limit: 5})
	assert.Error(t, err)
}

func Test_Store_Count(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(dialect, func(t *testing.T) {
			require.NoError(t, err)

			dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM [`'\"]articles[`'\"] WHERE published = (?:\\$\\d|\\?)$").
				WithArgs(true).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))

			n, err := New(db, articleGetters).Count(context.Background(), tPublished)
			require.NoError(t, err)
			assert.EqualValues(t, 23, n)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func Test_Store_First(t *testing.T) {
	ctx := context.Background()
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)
	s := New(db, articleGetters)

	q := sloth.NewQuery("article", sloth.Asc("id")).Where("id", "a1")
	dbMock.ExpectQuery("^SELECT \\* FROM `articles` WHERE id = \\? ORDER BY id ASC LIMIT 1$").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(articleColumns).AddRow("a1", "One", true, "", time.Now()))

	got, err := s.First(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "One", got.Title)

	dbMock.ExpectQuery("^SELECT \\* FROM `articles`").WillReturnRows(sqlmock.NewRows(articleColumns))
	_, err = s.First(ctx, q)
	assert.ErrorIs(t, err, sloth.ErrNotFound)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_Store_Get(t *testing.T) {
	ctx := context.Background()
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)
	s := New(db, articleGetters)

	dbMock.ExpectQuery("^SELECT \\* FROM `articles` WHERE id = \\?").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(articleColumns).AddRow("a1", "One", false, ",x,", time.Time{}))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, List{"x"}, got.Tags)

	dbMock.ExpectQuery("^SELECT \\* FROM `articles` WHERE id = \\?").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(articleColumns))

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, sloth.ErrNotFound)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_Store_Delete(t *testing.T) {
	ctx := context.Background()
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)
	s := New(db, articleGetters)

	dbMock.ExpectBegin()
	dbMock.ExpectExec("^DELETE FROM `articles` WHERE id = \\?$").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectCommit()
	require.NoError(t, s.Delete(ctx, "a1"))

	dbMock.ExpectBegin()
	dbMock.ExpectExec("^DELETE FROM `articles` WHERE id = \\?$").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectCommit()
	assert.ErrorIs(t, s.Delete(ctx, "a1"), sloth.ErrNotFound)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_Store_Create(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	dbMock.ExpectBegin()
	dbMock.ExpectExec("^INSERT INTO `articles`").
		WithArgs("a1", "One", true, ",go,", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectCommit()

	rec := article{ID: "a1", Title: "One", Published: true, Tags: List{"go"}, PublishedAt: time.Now()}
	require.NoError(t, New(db, articleGetters).Create(context.Background(), &rec))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_Open_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}
