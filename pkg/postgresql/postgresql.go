package postgresql

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/tazkarti/tz-booking/config"
)

func GetDatabase() *sql.DB {
	c := config.Get()

	db, err := sql.Open("postgres", c.Postgres.DSN)
	if err != nil {
		panic(err)
	}

	db.SetMaxOpenConns(c.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(c.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(c.Postgres.ConnMaxLifetime)

	return db
}
