package repository

import (
    "context"
    "database/sql"
)

// withTx runs fn inside a transaction, rolling back on error and
// committing otherwise. Repositories use it so every multi-statement
// mutation is all-or-nothing.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    if err := fn(tx); err != nil {
        _ = tx.Rollback()
        return err
    }
    return tx.Commit()
}

// inPlaceholders builds "?, ?, ?" for n values.
func inPlaceholders(n int) string {
    if n <= 0 {
        return ""
    }
    s := "?"
    for i := 1; i < n; i++ {
        s += ", ?"
    }
    return s
}
