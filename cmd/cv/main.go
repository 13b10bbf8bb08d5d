package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/config"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/engine"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/export"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/loader"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/store"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/ui"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	help := flag.Bool("help", false, "Show help")
	showVersion := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: $CV_CONFIG or the user config directory)")
	treePath := flag.String("tree", "", "Concept tree file or directory (default: built-in sample)")
	exportList := flag.String("export", "", "Write snapshots to these comma-separated .svg/.png/.json paths and exit")
	frames := flag.Int("frames", 300, "Physics steps to run before -export")
	initConfig := flag.String("init-config", "", "Interactively write a config file to this path and exit")
	debugLog := flag.String("debug-log", "", "Write a debug log to this file")
	seed := flag.Int64("seed", 0, "Seed for the initial placement jitter (0: from config, else random)")
	flag.Parse()

	if *help {
		fmt.Println("Usage: cv [options]")
		fmt.Println("\nA terminal viewer that draws a concept tree as a living constellation.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("cv version %s\n", version)
		os.Exit(0)
	}

	if *initConfig != "" {
		if err := runConfigWizard(*initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *initConfig)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.ConfigPathFromEnv("")
	}
	cfg, err := config.Load(path, path != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if *treePath != "" {
		cfg.Tree = *treePath
	}
	if *debugLog != "" {
		cfg.Log.File = *debugLog
		cfg.Log.Level = "debug"
	}
	if *seed != 0 {
		cfg.Layout.Seed = *seed
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tree, treeFile, err := loadTree(cfg.Tree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading concept tree: %v\n", err)
		os.Exit(1)
	}
	logger.Info("tree loaded", zap.String("file", treeFile), zap.Int("concepts", tree.Count()))

	if *exportList != "" {
		paths := splitList(*exportList)
		if err := runExport(tree, cfg, logger, *frames, paths); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Printf("Wrote %s\n", p)
		}
		os.Exit(0)
	}

	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fmt.Fprintln(os.Stderr, "cv needs a terminal; use -export for headless snapshots.")
		os.Exit(1)
	}

	if err := run(tree, treeFile, cfg, logger, fd); err != nil {
		fmt.Fprintf(os.Stderr, "Error running constellation viewer: %v\n", err)
		os.Exit(1)
	}
}

func run(tree *model.ConceptNode, treeFile string, cfg config.Config, logger *zap.Logger, fd int) error {
	st, err := store.Open(cfg.Store)
	if err != nil {
		// The saved view is a convenience; run without persistence.
		logger.Warn("store unavailable, views will not persist", zap.Error(err))
		st = store.NewMemory()
	}
	defer st.Close()

	opts := engineOptions(cfg, logger)
	opts.Store = st
	if w, h, err := term.GetSize(fd); err == nil {
		opts.Width = float64(w) * cfg.UI.CellWidth
		opts.Height = float64(h-2) * cfg.UI.CellHeight
	}
	eng := engine.New(tree, opts)
	defer eng.Close()

	m := ui.New(eng, ui.Options{
		UI:     cfg.UI,
		Logger: logger.Named("ui"),
		Title:  tree.DisplayLabel(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if cfg.UI.Watch && treeFile != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w, err := watcher.Watch(ctx, treeFile, watcher.DefaultDebounce, logger.Named("watcher"), func(path string) {
			p.Send(ui.ReloadTree(path))
		})
		if err != nil {
			logger.Warn("tree watch disabled", zap.String("file", treeFile), zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	_, err = p.Run()
	return err
}

// runExport steps the layout headlessly and writes the settled frame.
func runExport(tree *model.ConceptNode, cfg config.Config, logger *zap.Logger, frames int, paths []string) error {
	opts := engineOptions(cfg, logger)
	eng := engine.New(tree, opts)
	defer eng.Close()

	now := time.Unix(0, 0)
	for i := 0; i < frames; i++ {
		eng.Frame(now)
		now = now.Add(cfg.UI.FrameInterval)
	}

	exp := export.DefaultOptions()
	exp.Title = tree.DisplayLabel()
	exp.Labels = make(map[string]string)
	tree.Walk(func(n *model.ConceptNode, _ int) bool {
		exp.Labels[n.ID] = n.DisplayLabel()
		return true
	})
	return export.SaveSnapshots(context.Background(), eng.Snapshot(), exp, paths...)
}

func engineOptions(cfg config.Config, logger *zap.Logger) engine.Options {
	return engine.Options{
		Layout:  cfg.Layout,
		Camera:  cfg.Camera,
		Gesture: cfg.Gesture,
		Logger:  logger.Named("engine"),
	}
}

// loadTree returns the configured tree and the file it came from, or the
// built-in sample when none is configured.
func loadTree(path string) (*model.ConceptNode, string, error) {
	if path == "" {
		return loader.SampleTree(), "", nil
	}
	file, err := loader.ResolvePath(path)
	if err != nil {
		return nil, "", err
	}
	tree, err := loader.LoadTreeFromFile(file)
	if err != nil {
		return nil, "", err
	}
	return tree, file, nil
}

// newLogger writes to the configured file; without one logging is off,
// since the terminal belongs to the viewer.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = level
	zc.OutputPaths = []string{cfg.File}
	zc.ErrorOutputPaths = []string{cfg.File}
	return zc.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
