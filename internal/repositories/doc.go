// package repositories provides the persistence layer for run history.
//
// Every backup and restore leaves one row behind so `spotsnap history` can
// show what happened to the library and when. The snapshot documents
// themselves live on disk; the database only records the bookkeeping.
package repositories
