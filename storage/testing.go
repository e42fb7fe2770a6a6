package storage

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq uint64

// InitializeTestDB opens a fresh in-memory database, migrates the schema,
// and assigns it to the package-level DB handle. Each call gets an isolated
// database so tests don't bleed into each other.
func InitializeTestDB() *gorm.DB {
	n := atomic.AddUint64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to open test database: " + err.Error())
	}
	performMigrations(db)
	DB = db
	return db
}
