package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Options describe one MySQL connection pool.
type Options struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the go-sql-driver data source name.
func (o Options) DSN() string {
	auth := o.User
	if o.Password != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Password)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, o.Host, o.Port, o.Name)
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 25
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxOpenConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
