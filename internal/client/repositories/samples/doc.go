// Package samples provides the client-side persistence layer for field
// samples.
//
// # Overview
//
// The package defines a Repository interface used by the sample service and
// the record sync engine. SQLiteRepository persists samples through a
// dbx.DBTX (*sql.DB or *sql.Tx); MemoryRepository keeps them in a map and is
// meant for tests.
//
// Typical Usage
//
//	repo := samples.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, sample)
//	queued, _ := repo.GetUnsynced(ctx)
//	_ = repo.Update(ctx, sample.ID, models.SamplePatch{Synced: &yes, UpdatedAt: &now})
//
// Driver failures are reported wrapped in common.ErrStorage; lookups and
// updates of a missing key return common.ErrorNotFound.
package samples
