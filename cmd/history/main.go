// Command history serves recorded coaching sessions over HTTP, with live
// SQL access to the session database under /debug/.
//
//	history -db sessions.db -listen :8080
//	history -db sessions.db migrate status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/posture.report/internal/api"
	"github.com/banshee-data/posture.report/internal/db"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/version"
)

var (
	dbPath      = flag.String("db", "sessions.db", "SQLite session database")
	listen      = flag.String("listen", ":8080", "Listen address")
	catalogPath = flag.String("catalog", reference.DefaultCatalogPath, "Activity catalog (JSON); optional")
	devMode     = flag.Bool("dev", false, "Read migrations from internal/db/migrations on disk")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("history", version.String())
		return
	}
	db.DevMode = *devMode

	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(os.Stdout, flag.Args()[1:], *dbPath); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var activities []string
	if cat, err := reference.LoadCatalog(*catalogPath); err != nil {
		log.Printf("activity catalog unavailable: %v", err)
	} else {
		activities = cat.Names()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := api.NewServer(database, activities).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		log.Fatalf("Failed to attach admin routes: %v", err)
	}

	server := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("serving session history on %s", *listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("failed to shut down HTTP server gracefully: %v", err)
	}
	log.Print("HTTP server routine stopped")
}
