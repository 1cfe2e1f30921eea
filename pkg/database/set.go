package database

import "database/sql"

// SupportedModules are the shard names a request may address. "default" is
// the full database and the fallback for any shard that was not attached.
var SupportedModules = map[string]bool{
	"default":  true,
	"avatar":   true,
	"dialogue": true,
	"mission":  true,
	"item":     true,
	"monster":  true,
}

// Set routes reads to per-module shard databases, falling back to the full
// database for modules that were not split out.
type Set struct {
	dbs map[string]*sql.DB
}

func NewSet(def *sql.DB) *Set {
	return &Set{dbs: map[string]*sql.DB{"default": def}}
}

// Attach registers a shard for one module. Unknown module names are ignored
// so a stale flag cannot shadow the default database.
func (s *Set) Attach(module string, db *sql.DB) {
	if module == "default" || !SupportedModules[module] {
		return
	}
	s.dbs[module] = db
}

// For returns the database serving a module.
func (s *Set) For(module string) *sql.DB {
	if db, ok := s.dbs[module]; ok {
		return db
	}
	return s.dbs["default"]
}

// Has reports whether a dedicated shard is attached for a module.
func (s *Set) Has(module string) bool {
	_, ok := s.dbs[module]
	return ok
}

// ModuleName validates a requested module name, falling back to def.
func (s *Set) ModuleName(raw, def string) string {
	if SupportedModules[raw] {
		return raw
	}
	return def
}

// Close closes every attached database once, default last.
func (s *Set) Close() {
	def := s.dbs["default"]
	for name, db := range s.dbs {
		if name != "default" && db != def {
			_ = db.Close()
		}
	}
	if def != nil {
		_ = def.Close()
	}
}
