package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"hsrdb/internal/auth"
	"hsrdb/internal/avatar"
	"hsrdb/internal/dialogue"
	"hsrdb/internal/events"
	"hsrdb/internal/index"
	"hsrdb/internal/item"
	"hsrdb/internal/mission"
	"hsrdb/internal/monster"
	"hsrdb/internal/search"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/database"
	"hsrdb/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	dbCfg := database.DefaultConfig()

	addr := flag.String("addr", srvCfg.Addr, "listen address")
	dbPath := flag.String("db-path", dbCfg.Path, "full database path")
	dbAvatar := flag.String("db-avatar", os.Getenv("HSRDB_DB_AVATAR"), "optional avatar shard path")
	dbDialogue := flag.String("db-dialogue", os.Getenv("HSRDB_DB_DIALOGUE"), "optional dialogue shard path")
	dbMission := flag.String("db-mission", os.Getenv("HSRDB_DB_MISSION"), "optional mission shard path")
	dbItem := flag.String("db-item", os.Getenv("HSRDB_DB_ITEM"), "optional item shard path")
	dbMonster := flag.String("db-monster", os.Getenv("HSRDB_DB_MONSTER"), "optional monster shard path")
	resourcesRoot := flag.String("resources-root", srvCfg.ResourcesRoot, "resources directory")
	webRoot := flag.String("web-root", srvCfg.WebRoot, "optional static frontend directory")
	flag.Parse()

	db := database.MustOpen(database.Config{Path: *dbPath})

	set := database.NewSet(db)
	defer set.Close()
	for module, path := range map[string]string{
		"avatar":   *dbAvatar,
		"dialogue": *dbDialogue,
		"mission":  *dbMission,
		"item":     *dbItem,
		"monster":  *dbMonster,
	} {
		if path == "" {
			continue
		}
		shard, err := database.Open(database.Config{Path: path})
		if err != nil {
			log.Fatalf("open %s shard: %v", module, err)
		}
		set.Attach(module, shard)
		log.Printf("[api] DB(%s): %s", module, path)
	}
	log.Printf("[api] DB(default): %s", *dbPath)

	stores := map[string]*textmap.Store{"default": textmap.NewStore(db, *resourcesRoot)}
	for module := range database.SupportedModules {
		if module == "default" {
			continue
		}
		if set.Has(module) {
			stores[module] = textmap.NewStore(set.For(module), *resourcesRoot)
		} else {
			stores[module] = stores["default"]
		}
	}

	idx := index.NewCache(*resourcesRoot)
	hub := events.NewHub()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", events.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": *dbPath})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	api := router.Group("/api")

	dialogueRepo := dialogue.NewRepo(set.For("dialogue"), set.For("mission"), stores["dialogue"])
	dialogue.NewHandler(dialogueRepo).RegisterRoutes(api)

	missionRepo := mission.NewRepo(set.For("mission"), set.For("dialogue"), stores["mission"], stores["dialogue"])
	mission.NewHandler(missionRepo).RegisterRoutes(api)

	avatarRepo := avatar.NewRepo(set.For("avatar"), stores["avatar"], idx)
	avatar.NewHandler(avatarRepo).RegisterRoutes(api)

	itemRepo := item.NewRepo(set.For("item"), stores["item"], idx)
	item.NewHandler(itemRepo).RegisterRoutes(api)

	monsterSvc := monster.NewService(stores["monster"], idx)
	monster.NewHandler(monsterSvc).RegisterRoutes(api)

	searchRepo := search.NewRepo(set, stores, idx)
	search.NewHandler(searchRepo).RegisterRoutes(api)

	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	auth.NewHandler(tokenSvc, authCfg).RegisterRoutes(api)

	admin := api.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc))

	admin.POST("/reload-textmap", func(c *gin.Context) {
		lang, ok := textmap.NormalizeLang(c.Query("lang"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown lang"})
			return
		}
		for module, store := range stores {
			if err := store.EnsureLoaded(lang); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed", "module": module})
				return
			}
		}
		hub.Emit("textmap_reloaded", map[string]any{"lang": lang})
		c.JSON(http.StatusOK, gin.H{"status": "ok", "lang": lang})
	})

	admin.POST("/reload-index", func(c *gin.Context) {
		idx.Reset()
		hub.Emit("index_reloaded", nil)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if *webRoot != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(*webRoot))))
	}

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("server stopped")
}
