// Command coach runs one monitored activity over a stream of landmark
// frames, speaks feedback as it goes and prints the session summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/db"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/httputil"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/report"
	"github.com/banshee-data/posture.report/internal/session"
	"github.com/banshee-data/posture.report/internal/version"
)

var (
	activity    = flag.String("activity", "", "Activity to run (see -list)")
	framesPath  = flag.String("frames", "", "JSON-lines landmark frames to replay, or - for stdin")
	configPath  = flag.String("config", config.DefaultConfigPath, "Coach tuning config (JSON)")
	catalogPath = flag.String("catalog", reference.DefaultCatalogPath, "Activity catalog (JSON)")
	dbPath      = flag.String("db", "", "SQLite database to record the session in")
	historyURL  = flag.String("history", "", "History server base URL to upload the session to")
	reportDir   = flag.String("report", "", "Directory for JSON/HTML/PNG session reports")
	fps         = flag.Float64("fps", 0, "Replay pace in frames per second (0 = as fast as possible)")
	speakCmd    = flag.String("speak", "", "Text-to-speech command (overrides config)")
	playCmd     = flag.String("play", "", "Audio clip player command (overrides config)")
	list        = flag.Bool("list", false, "List activities in the catalog and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the parsed command line.
type options struct {
	Activity    string
	Frames      string
	ConfigPath  string
	CatalogPath string
	DBPath      string
	HistoryURL  string
	ReportDir   string
	FPS         float64
	Speak       string
	Play        string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("coach", version.String())
		return
	}
	if *list {
		cat, err := reference.LoadCatalog(*catalogPath)
		if err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
		for _, name := range cat.Names() {
			a, _ := cat.Lookup(name)
			fmt.Printf("%-14s %s\n", name, a.Kind)
		}
		return
	}
	if *activity == "" || *framesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		Activity:    *activity,
		Frames:      *framesPath,
		ConfigPath:  *configPath,
		CatalogPath: *catalogPath,
		DBPath:      *dbPath,
		HistoryURL:  *historyURL,
		ReportDir:   *reportDir,
		FPS:         *fps,
		Speak:       *speakCmd,
		Play:        *playCmd,
	}
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("coach: %v", err)
	}
}

// loadConfig reads path. A missing default config falls back to built-in
// defaults; an explicitly named one must exist.
func loadConfig(path string) (*config.CoachConfig, error) {
	if path == config.DefaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Printf("no config at %s, using built-in defaults", path)
			return config.EmptyCoachConfig(), nil
		}
	}
	return config.LoadCoachConfig(path)
}

func newNotifier(cfg *config.CoachConfig, opts options) feedback.Notifier {
	speak, play := cfg.GetSpeakCommand(), cfg.GetPlayCommand()
	if opts.Speak != "" {
		speak = opts.Speak
	}
	if opts.Play != "" {
		play = opts.Play
	}
	if speak == "" && play == "" {
		return feedback.LogNotifier{}
	}
	return &feedback.CommandNotifier{
		ClipDir:      cfg.GetClipDir(),
		PlayCommand:  play,
		SpeakCommand: speak,
		Timeout:      cfg.GetNotificationTimeout(),
	}
}

// stores builds the persistence chain: local database, then upload. Every
// store is tried; their errors are joined.
func stores(opts options) (session.Store, func(), error) {
	var (
		chain   []session.Store
		cleanup = func() {}
	)
	if opts.DBPath != "" {
		database, err := db.NewDB(opts.DBPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open database: %w", err)
		}
		chain = append(chain, database)
		cleanup = func() { database.Close() }
	}
	if opts.HistoryURL != "" {
		client := &http.Client{Timeout: 30 * time.Second}
		url := strings.TrimRight(opts.HistoryURL, "/") + "/api/sessions"
		chain = append(chain, session.StoreFunc(func(ctx context.Context, s session.Summary) error {
			return httputil.PostJSON(ctx, client, url, s)
		}))
	}
	if len(chain) == 0 {
		return nil, cleanup, nil
	}
	return session.StoreFunc(func(ctx context.Context, s session.Summary) error {
		var errs []error
		for _, st := range chain {
			if err := st.SaveSummary(ctx, s); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}), cleanup, nil
}

func run(ctx context.Context, opts options, stdin io.Reader, out io.Writer) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	catalog, err := reference.LoadCatalog(opts.CatalogPath)
	if err != nil {
		return err
	}
	bundle, err := catalog.Load(opts.Activity)
	if err != nil {
		return err
	}

	var src *session.ReplaySource
	if opts.Frames == "-" {
		src = session.NewReplaySource(stdin)
	} else if src, err = session.OpenReplay(opts.Frames); err != nil {
		return err
	}
	defer src.Close()

	store, closeStore, err := stores(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	queue := feedback.NewQueue(newNotifier(cfg, opts), cfg.GetNotificationQueueSize())
	queue.Start(ctx)

	s, err := session.New(bundle, cfg, session.Options{Sink: queue})
	if err != nil {
		queue.Close()
		return err
	}
	log.Printf("session %s: %s (%s)", s.ID(), bundle.Activity.Name, bundle.Activity.Kind)

	r := &session.Runner{
		Session: s,
		Source:  src,
		Store:   store,
		OnFrame: func(res session.FrameResult) {
			if res.Rep {
				log.Printf("rep %d", res.Reps)
			}
		},
	}
	if opts.FPS > 0 {
		r.FrameInterval = time.Duration(float64(time.Second) / opts.FPS)
	}

	sum, runErr := r.Run(ctx)

	printSummary(out, sum)
	var reportErr error
	if opts.ReportDir != "" {
		var files report.Files
		if files, reportErr = report.WriteAll(opts.ReportDir, sum); reportErr == nil {
			fmt.Fprintf(out, "\nReport: %s\n", files.HTML)
		}
	}

	// Queued playback finishes after a stop signal too.
	queue.Close()
	queue.Wait()
	st := queue.Stats()
	log.Printf("notifications: %d delivered, %d dropped, %d failed", st.Delivered, st.Dropped, st.Failed)

	if reportErr != nil {
		return reportErr
	}
	return runErr
}

func printSummary(w io.Writer, s session.Summary) {
	fmt.Fprintf(w, "Session %s\n", s.SessionID)
	fmt.Fprintf(w, "  activity:   %s (%s)\n", s.Activity, s.Kind)
	fmt.Fprintf(w, "  duration:   %s\n", s.Duration().Round(100*time.Millisecond))
	fmt.Fprintf(w, "  frames:     %d (%d usable)\n", s.Frames, s.UsableFrames)
	if s.Reps > 0 {
		fmt.Fprintf(w, "  reps:       %d\n", s.Reps)
	}
	fmt.Fprintf(w, "  accuracy:   best %.1f, avg %.1f\n", s.BestAccuracy, s.AvgAccuracy)
	if s.BreathingScore > 0 {
		fmt.Fprintf(w, "  breathing:  %.0f\n", s.BreathingScore)
	}
	for _, m := range s.Metrics {
		fmt.Fprintf(w, "  %-18s %.1f%%\n", m.Name+":", m.Percent)
	}
	if s.Degenerate {
		fmt.Fprintln(w, "  no usable frames were seen")
	}
	if len(s.Feedback) > 0 {
		fmt.Fprintln(w, "Feedback:")
		for _, f := range s.Feedback {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(s.Tips) > 0 {
		fmt.Fprintln(w, "Tips:")
		for _, t := range s.Tips {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
}
