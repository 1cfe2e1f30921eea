package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"hsrdb/internal/index"
	"hsrdb/internal/modules"
)

func main() {
	sourceDB := flag.String("source-db", "database/hsr_resources.db", "full database to split")
	outputDir := flag.String("output-dir", "database", "directory for shard files")
	outputPrefix := flag.String("output-prefix", "hsr_resources", "shard file name prefix")
	resourcesRoot := flag.String("resources-root", "resources", "resources directory")
	langs := flag.String("langs", "CHS,EN,JP,KR", "comma list of languages to embed")
	moduleList := flag.String("modules", strings.Join(modules.Names, ","), "comma list of modules to build")
	textMapModules := flag.String("text-map-modules", "avatar,item,monster",
		"modules that embed text_map rows; others keep text_map empty for smaller files")
	noVacuum := flag.Bool("no-vacuum", false, "skip VACUUM after build")
	force := flag.Bool("force", false, "overwrite existing shard files")
	flag.Parse()

	if _, err := os.Stat(*sourceDB); err != nil {
		log.Fatalf("source db not found: %s", *sourceDB)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	opts := modules.Options{
		SourceDB:      *sourceDB,
		OutputDir:     *outputDir,
		OutputPrefix:  *outputPrefix,
		ResourcesRoot: *resourcesRoot,
		Langs:         parseList(*langs, strings.ToUpper),
		Vacuum:        !*noVacuum,
	}

	selected := []string{}
	for _, m := range parseList(*moduleList, strings.ToLower) {
		if modules.IsModule(m) {
			selected = append(selected, m)
		}
	}
	withText := map[string]bool{}
	for _, m := range parseList(*textMapModules, strings.ToLower) {
		if modules.IsModule(m) {
			withText[m] = true
		}
	}

	if !*force {
		for _, m := range selected {
			if _, err := os.Stat(opts.OutputPath(m)); err == nil {
				log.Fatalf("output already exists: %s (use -force)", opts.OutputPath(m))
			}
		}
	}

	log.Printf("[modules] source: %s", *sourceDB)
	log.Printf("[modules] building: %s", strings.Join(selected, ", "))
	log.Printf("[modules] langs: %s", strings.Join(opts.Langs, ","))

	idx := index.NewCache(*resourcesRoot)
	for _, m := range selected {
		start := time.Now()
		buildOpts := opts
		buildOpts.WithTextMap = withText[m]
		textRows, err := modules.Build(m, buildOpts, idx)
		if err != nil {
			log.Fatalf("[%s] build failed: %v", m, err)
		}
		log.Printf("[%s] done in %s | text_map=%d | %s",
			m, time.Since(start).Round(100*time.Millisecond), textRows, opts.OutputPath(m))
	}
	fmt.Println("all shards built")
}

func parseList(raw string, norm func(string) string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if v := norm(strings.TrimSpace(part)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
