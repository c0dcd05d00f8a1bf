// Package storage persists files shared through the proxy.
//
// Two backends implement Backend: FileSystem keeps one file per name inside a
// directory, and SQLiteBackend keeps blobs in a single database file using
// either the pure-Go modernc driver ("sqlite") or the cgo mattn driver
// ("sqlite3"). Open selects a backend from Options.
//
// Names are flat: a stored name never contains a path separator. Callers
// derive names with BaseName.
package storage
