package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/config"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/store"

	"github.com/charmbracelet/huh"
)

// runConfigWizard asks for the common settings and writes a config file to
// path, starting from the defaults.
func runConfigWizard(path string) error {
	cfg := config.Default()

	tree := cfg.Tree
	driver := cfg.Store.Driver
	storePath := cfg.Store.Path
	logFile := cfg.Log.File
	watch := cfg.UI.Watch
	flyMillis := strconv.Itoa(int(cfg.Camera.FlyDuration / time.Millisecond))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Concept tree").
				Description("YAML or JSON file, or a directory holding constellation.yaml. Empty uses the sample.").
				Value(&tree),
			huh.NewConfirm().
				Title("Reload the tree when the file changes?").
				Value(&watch),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Saved view storage").
				Options(
					huh.NewOption("SQLite (cgo)", store.DriverSQLite3),
					huh.NewOption("SQLite (pure Go)", store.DriverSQLite),
					huh.NewOption("Memory only", store.DriverMemory),
				).
				Value(&driver),
			huh.NewInput().
				Title("Database path").
				Value(&storePath),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Fly-to duration (ms)").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("enter a whole number of milliseconds")
					}
					return nil
				}).
				Value(&flyMillis),
			huh.NewInput().
				Title("Debug log file").
				Description("Empty disables logging.").
				Value(&logFile),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	ms, _ := strconv.Atoi(flyMillis)
	cfg.Tree = tree
	cfg.UI.Watch = watch
	cfg.Store.Driver = driver
	cfg.Store.Path = storePath
	cfg.Camera.FlyDuration = time.Duration(ms) * time.Millisecond
	cfg.Log.File = logFile

	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(path, cfg)
}
