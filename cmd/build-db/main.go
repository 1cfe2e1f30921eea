package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"hsrdb/internal/ingest"
	"hsrdb/pkg/database"
)

func main() {
	dbCfg := database.DefaultConfig()

	dbPath := flag.String("db-path", dbCfg.Path, "output database path")
	resourcesRoot := flag.String("resources-root", "resources", "resources directory with TextMap/ and ExcelOutput/")
	langs := flag.String("langs", "CHS,EN", "comma list of materialized languages")
	includeLevelConfig := flag.Bool("include-level-config", true, "also scan Config/Level/Mission trees for references")
	force := flag.Bool("force", false, "overwrite an existing database file")
	flag.Parse()

	langList := parseLangs(*langs)

	if _, err := os.Stat(*dbPath); err == nil {
		if !*force {
			log.Fatalf("database already exists: %s (use -force)", *dbPath)
		}
		// drop the WAL sidecars too, a stale journal must not leak into
		// the fresh file
		for _, path := range []string{*dbPath, *dbPath + "-wal", *dbPath + "-shm"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Fatalf("remove %s: %v", path, err)
			}
		}
	}

	db, err := database.OpenForBuild(database.Config{Path: *dbPath})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if !database.EnsureFTS(db) {
		log.Printf("[build] fts5 unavailable, search falls back to LIKE")
	}

	pipeline := ingest.New(db, *resourcesRoot, langList)
	if err := pipeline.Run(*includeLevelConfig); err != nil {
		log.Fatalf("build failed: %v", err)
	}
	log.Printf("[build] database written to %s", *dbPath)
}

func parseLangs(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if lang := strings.ToUpper(strings.TrimSpace(part)); lang != "" {
			out = append(out, lang)
		}
	}
	if len(out) == 0 {
		return []string{"CHS", "EN"}
	}
	return out
}
