package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpsboost/fpsboost/internal/booster"
	"github.com/fpsboost/fpsboost/internal/config"
	"github.com/fpsboost/fpsboost/internal/daemon"
	"github.com/fpsboost/fpsboost/internal/database"
	"github.com/fpsboost/fpsboost/internal/reporter"
	"github.com/fpsboost/fpsboost/internal/tui"
	"github.com/fpsboost/fpsboost/pkg/detector"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
	"github.com/fpsboost/fpsboost/pkg/utils"
	"github.com/fpsboost/fpsboost/pkg/window"
	"github.com/fpsboost/fpsboost/version"
)

const (
	appName     = "fpsboost"
	childEnv    = "FPSBOOST_DAEMON_CHILD"
	stopTimeout = 10 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon()
	case "run":
		runForeground()
	case "tui":
		runTUI()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "report":
		generateReport()
	case "clear":
		clearDatabase()
	case "config":
		showConfig()
	case "version":
		fmt.Printf("%s version %s\n", appName, version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`fpsboost - Fullscreen application priority booster

Usage:
  fpsboost <command> [options]

Commands:
  start              Start the booster in the background
  run                Run the booster in the foreground (Ctrl-C to stop)
  tui                Interactive terminal interface
  stop               Stop the background booster and restore priorities
  status             Show booster status and the current foreground window
  report [period]    Boosted time per process (period: day, week, month) [--json]
  clear              Clear all journal data from the database
  config [init]      Show the effective configuration, or write it to the config file
  version            Show version information
  help               Show this help message

Examples:
  fpsboost start
  sudo fpsboost run
  fpsboost tui
  fpsboost report week --json
  fpsboost stop

Environment Variables:
  FPSBOOST_CONFIG              Config file path (default ~/.config/fpsboost/config.yaml)
  FPSBOOST_POLL_INTERVAL       Poll interval, duration or seconds (200ms-10s)
  FPSBOOST_TURBO               Start in turbo mode (true/false)
  FPSBOOST_BALANCED_LIMIT      Background apps throttled outside turbo
  FPSBOOST_TOLERANCE           Fullscreen tolerance in pixels
  FPSBOOST_ALLOW_LIST          Only boost these processes (comma separated)
  FPSBOOST_RESTORE_ON_SWITCH   Restore the previous game when another is boosted
  FPSBOOST_POWER_TWEAK         Switch to the performance power profile (true/false)
  FPSBOOST_DB_PATH             Database file path
  FPSBOOST_JOURNAL             Record boost sessions (true/false)
  FPSBOOST_PID_FILE            PID file path

Run as root or grant CAP_SYS_NICE to raise priorities of other users' processes.

Version: %s
`, version.Version)
}

func loadConfig() *config.Config {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// newEngine wires the probe, process controller and journal into an
// engine. The returned cleanup closes whatever was opened.
func newEngine(cfg *config.Config) (*booster.Engine, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	probe, err := detector.New()
	if err != nil {
		log.Printf("Window probe unavailable, booster will stay idle: %v", err)
	} else {
		log.Printf("Window probe initialized: %s", probe.DisplayServer())
	}
	closers = append(closers, func() { probe.Close() })

	ctrl, err := process.NewSystem()
	if err != nil {
		cleanup()
		log.Fatalf("Failed to initialize process controller: %v", err)
	}
	if !process.CanRaisePriority() {
		log.Printf("Not running as root and CAP_SYS_NICE is missing: fullscreen apps will be reported as needing admin")
	}

	var journal booster.Journal
	if cfg.Database.Journal {
		db, err := database.Connect(cfg.Database.Path)
		if err != nil {
			log.Printf("Journal disabled: %v", err)
		} else if err := db.Initialize(); err != nil {
			log.Printf("Journal disabled: %v", err)
			db.Close()
		} else {
			closers = append(closers, func() { db.Close() })
			repo := database.NewRepository(db)
			if n, err := repo.CloseOpenSessions(); err != nil {
				log.Printf("Failed to close stale sessions: %v", err)
			} else if n > 0 {
				log.Printf("Closed %d session(s) left open by a previous run", n)
			}
			journal = repo
		}
	}

	return booster.NewEngine(cfg, probe, ctrl, journal), cleanup
}

func startDaemon() {
	cfg := loadConfig()

	// Check if already running
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Booster is already running (PID: %d)", pid)
	}

	// Check if we should daemonize
	if os.Getenv(childEnv) != "1" {
		daemonize(cfg)
		return
	}

	// Redirect logs to file
	logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	serve(cfg, dm)
}

func runForeground() {
	cfg := loadConfig()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Booster is already running (PID: %d)", pid)
	}

	serve(cfg, dm)
}

// serve runs the engine until SIGINT or SIGTERM, publishing every status
// change to the daemon state file.
func serve(cfg *config.Config, dm *daemon.Daemon) {
	engine, cleanup := newEngine(cfg)
	defer cleanup()

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	var last string
	engine.SetStatusHandler(func(s booster.Status) {
		if s.Headline+s.Detail == last {
			return
		}
		last = s.Headline + s.Detail
		state := daemon.State{
			PID:       os.Getpid(),
			SessionID: engine.SessionID(),
			Headline:  s.Headline,
			Detail:    s.Detail,
			Severity:  s.Severity.String(),
			Turbo:     engine.Turbo(),
			UpdatedAt: time.Now(),
		}
		if err := dm.WriteState(state); err != nil {
			log.Printf("Failed to publish status: %v", err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting fpsboost...")
	log.Printf("%s", cfg.String())

	if err := engine.Run(ctx); err != nil {
		log.Printf("Booster error: %v", err)
		return
	}

	log.Println("Booster stopped successfully")
}

func runTUI() {
	cfg := loadConfig()

	// keep the terminal clean, logs go to the log file
	logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	if running, pid, _ := dm.IsRunning(); running {
		fmt.Printf("A background booster is running (PID: %d). Stop it first with: %s stop\n", pid, appName)
		os.Exit(1)
	}

	engine, cleanup := newEngine(cfg)
	defer cleanup()

	if err := tui.Run(engine); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func stopDaemon() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Booster is not running")
		return
	}

	fmt.Printf("Stopping booster (PID: %d)...\n", pid)
	if err := dm.Stop(stopTimeout); err != nil {
		log.Fatalf("Failed to stop booster: %v", err)
	}

	fmt.Println("Booster stopped, priorities restored")
}

func showStatus() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Poll Interval: %v\n", cfg.Booster.PollInterval)
		if state, err := dm.ReadState(); err == nil && state != nil {
			mode := booster.ModeOf(state.Turbo)
			fmt.Printf("Mode: %s\n", mode)
			fmt.Printf("\n%s\n  %s\n", state.Headline, state.Detail)
			fmt.Printf("  (updated %s ago)\n", utils.FormatRoundedUnit(int64(time.Since(state.UpdatedAt).Seconds())))
		}
	}
	fmt.Printf("Can Raise Priority: %v\n", process.CanRaisePriority())

	showForeground(cfg)
	showLatestSession(cfg)
}

func showForeground(cfg *config.Config) {
	probe, err := detector.New()
	if err != nil {
		fmt.Printf("\nCould not probe the foreground window: %v\n", err)
		return
	}
	defer probe.Close()

	h, ok := probe.ForegroundWindow()
	if !ok {
		fmt.Println("\nNo foreground window")
		return
	}

	classifier := window.NewClassifier(probe, cfg.Booster.Tolerance, cfg.Booster.ShellClasses)
	pid, _ := probe.OwningProcess(h)
	geom, _ := probe.Geometry(h)
	mon, _ := probe.MonitorGeometry(h)

	fmt.Printf("\nForeground Window:\n")
	fmt.Printf("  Class: %s\n", probe.ClassName(h))
	fmt.Printf("  PID: %d\n", pid)
	fmt.Printf("  Size: %dx%d on a %dx%d monitor\n", geom.Width, geom.Height, mon.Width, mon.Height)
	fmt.Printf("  Fullscreen: %v\n", classifier.IsFullscreen(h))
}

func showLatestSession(cfg *config.Config) {
	if !cfg.Database.Journal {
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return
	}
	defer db.Close()

	repo := database.NewRepository(db)
	latest, err := repo.GetLatest()
	if err != nil || latest == nil {
		return
	}

	fmt.Printf("\nLast Boost:\n")
	fmt.Printf("  Process: %s (PID %d, %s)\n", latest.ProcessName, latest.PID, latest.Mode)
	fmt.Printf("  Started: %s\n", latest.StartedAt.Format("2006-01-02 15:04:05"))
	if latest.EndedAt != nil {
		fmt.Printf("  Duration: %s\n", utils.FormatRoundedUnit(latest.Duration))
	} else {
		fmt.Println("  Duration: in progress")
	}

	errs, err := repo.GetErrorsSince(time.Now().Add(-24*time.Hour), 5)
	if err == nil && len(errs) > 0 {
		fmt.Printf("\nRecent Errors:\n")
		for _, e := range errs {
			fmt.Printf("  %s  %-18s %s\n", e.Timestamp.Format("15:04:05"), e.Kind, utils.Truncate(e.ErrorMsg, 60))
		}
	}
}

func generateReport() {
	periodType := "day"
	if len(os.Args) > 2 && os.Args[2] != "--json" {
		periodType = os.Args[2]
	}

	// Check for JSON flag
	jsonOutput := false
	for _, arg := range os.Args[2:] {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	cfg := config.New()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	rep := reporter.New(repo)

	report, err := rep.GenerateReport(periodType)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
	} else {
		fmt.Println(rep.FormatReportText(report))
	}
}

func clearDatabase() {
	cfg := config.New()

	// Prompt for confirmation
	fmt.Print("This will delete all boost sessions and error logs. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)

	if err := repo.Clear(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}

	fmt.Println("Database cleared successfully")
}

func showConfig() {
	cfg := config.New()

	if len(os.Args) > 2 && os.Args[2] == "init" {
		path := os.Getenv("FPSBOOST_CONFIG")
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				log.Fatalf("Failed to resolve config path: %v", err)
			}
		}
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("Config file already exists: %s", path)
		}
		if err := config.WriteFile(cfg, path); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", path)
		return
	}

	fmt.Println(cfg.String())
	if err := cfg.Validate(); err != nil {
		fmt.Printf("\nInvalid configuration: %v\n", err)
		os.Exit(1)
	}
}

func daemonize(cfg *config.Config) {
	// Fork the process
	env := os.Environ()
	env = append(env, childEnv+"=1")

	args := os.Args

	exe, err := os.Executable()
	if err != nil {
		exe = args[0]
	}

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true, // Create new session
		},
	}

	child, err := os.StartProcess(exe, args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start booster process: %v", err)
	}

	fmt.Printf("Booster started successfully (PID: %d)\n", child.Pid)
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
}
