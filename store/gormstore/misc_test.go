package gormstore

import (
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Alp4ka/sloth"
)

// openMock wraps a sqlmock connection in the dialector built by dial.
func openMock(name string, dial func(*sql.DB) gorm.Dialector) (string, *gorm.DB, sqlmock.Sqlmock, error) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	db, err := gorm.Open(dial(conn), &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return name, db, mock, nil
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	return openMock("mysql", func(conn *sql.DB) gorm.Dialector {
		return mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true})
	})
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	return openMock("postgres", func(conn *sql.DB) gorm.Dialector {
		return postgres.New(postgres.Config{Conn: conn})
	})
}

type article struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Published   bool
	Tags        List
	PublishedAt time.Time
}

var articleGetters = sloth.Getters[article]{
	"id":           func(a article) any { return a.ID },
	"published":    func(a article) any { return a.Published },
	"published_at": func(a article) any { return a.PublishedAt },
}

var articleColumns = []string{"id", "title", "published", "tags", "published_at"}
