package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"fb-video-manager/infrastructure/configuration"

	_ "github.com/go-sql-driver/mysql"
)

// NewNativeDb opens the local-dev MySQL database using database/sql.
func NewNativeDb() (*sql.DB, error) {
	cfg := configuration.C.Database.MySql
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
	)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
