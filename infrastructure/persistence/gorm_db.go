package persistence

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewRepositories opens a GORM handle over the MySQL mirror connection. The
// scheduler path uses database/sql directly; this handle backs migration
// tooling and ad-hoc reporting against the mirror.
func NewRepositories() (*gorm.DB, error) {
	nativeDb, err := NewNativeDb()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: nativeDb}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening gorm handle: %w", err)
	}
	return db, nil
}
