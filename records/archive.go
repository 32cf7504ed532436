package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticketmister-backend/logger"
)

const archiveTable = "Market_Records"

// Archive persists every record to MySQL as an append-only journal.
// Rows are never updated or deleted.
type Archive struct {
	ctx context.Context
	db  *sql.DB
}

func NewArchive(ctx context.Context, db *sql.DB) *Archive {
	return &Archive{ctx: ctx, db: db}
}

func (a *Archive) Publish(records ...Record) {
	for _, r := range records {
		payload, err := marshalRecord(r)
		if err != nil {
			logger.Errorf(a.ctx, "archive: unable to marshal %s record: %+v", r.Kind(), err)
			continue
		}
		if err := a.insert(r.Kind(), payload); err != nil {
			logger.Errorf(a.ctx, "archive: unable to archive %s record: %+v", r.Kind(), err)
		}
	}
}

func (a *Archive) insert(kind string, payload []byte) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("insert: error begining db transaction: %s", err)
	}

	tsql := fmt.Sprintf(`INSERT INTO %s(kind, payload, created_at) VALUES (?, ?, ?);`, archiveTable)

	stmt, err := tx.Prepare(tsql)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert: error preparing sql query: %s", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(kind, payload, time.Now().UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert: unable to insert record in %s: %s", archiveTable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert: error commiting record: %s", err)
	}
	return nil
}
