// Package wire provides dependency injection for the probeacc application.
// It creates singleton services with lazy initialization.
package wire

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cliadapter "github.com/example/probeacc/internal/adapters/cli"
	"github.com/example/probeacc/internal/adapters/console"
	"github.com/example/probeacc/internal/adapters/csvexport"
	"github.com/example/probeacc/internal/adapters/moonraker"
	"github.com/example/probeacc/internal/adapters/sqlite"
	"github.com/example/probeacc/internal/app"
	"github.com/example/probeacc/internal/config"
	"github.com/example/probeacc/internal/core/burst"
	"github.com/example/probeacc/internal/db"
	"github.com/example/probeacc/internal/ports/primary"
)

// Options are the process-wide settings taken from persistent flags.
type Options struct {
	ConfigPath string // empty means ~/.probeacc/config.yaml
	Verbose    bool
}

var (
	options Options

	logger           *zap.Logger
	cfg              *config.Config
	probeTestService primary.ProbeTestService
	runService       primary.RunService
	doctorService    primary.DoctorService
	runRepo          *sqlite.RunRepository
	initErr          error
	once             sync.Once
)

// Configure sets the options used by the first service lookup.
func Configure(opts Options) {
	options = opts
}

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	once.Do(initServices)
	return cfg, initErr
}

// ConfigPath returns the configuration file in use.
func ConfigPath() (string, error) {
	if options.ConfigPath != "" {
		return options.ConfigPath, nil
	}
	return config.DefaultPath()
}

// ProbeTestService returns the singleton ProbeTestService instance.
func ProbeTestService() (primary.ProbeTestService, error) {
	once.Do(initServices)
	return probeTestService, initErr
}

// RunService returns the singleton RunService instance.
func RunService() (primary.RunService, error) {
	once.Do(initServices)
	return runService, initErr
}

// DoctorService returns the singleton DoctorService instance.
func DoctorService() (primary.DoctorService, error) {
	once.Do(initServices)
	return doctorService, initErr
}

// SuiteAdapter returns a new SuiteAdapter writing to out.
// Each call creates a new adapter (adapters are stateless translators).
func SuiteAdapter(out io.Writer) (*cliadapter.SuiteAdapter, error) {
	service, err := ProbeTestService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewSuiteAdapter(service, out), nil
}

// RunAdapter returns a new RunAdapter writing to out. A non-empty exportDir
// sends CSV exports there instead of the data directory.
func RunAdapter(out io.Writer, exportDir string) (*cliadapter.RunAdapter, error) {
	service, err := RunService()
	if err != nil {
		return nil, err
	}
	if exportDir != "" {
		service = app.NewRunService(runRepo, csvexport.NewExporter(exportDir))
	}
	return cliadapter.NewRunAdapter(service, out), nil
}

// Shutdown flushes the logger and closes the database.
func Shutdown() {
	if logger != nil {
		_ = logger.Sync()
	}
	_ = db.Close()
}

// NewLogger builds the diagnostic logger: warnings and above on stderr,
// everything with verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	initErr = buildServices()
}

func buildServices() error {
	var err error
	logger, err = NewLogger(options.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	database, err := db.GetDB(dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Secondary adapters
	transport := moonraker.NewClient(cfg.MoonrakerURL, logger.Named("moonraker"))
	runRepo = sqlite.NewRunRepository(database)
	exporter := csvexport.NewExporter(dataDir)
	operator := console.New(os.Stdin, os.Stdout)

	settings := app.ProbeSettings{
		RandomMargin:         cfg.RandomMargin,
		Feedrate:             cfg.MoveFeedrate,
		LockGcode:            cfg.LockGcode,
		UnlockGcode:          cfg.UnlockGcode,
		SafeZObject:          cfg.SafeZObject,
		SafeZKey:             cfg.SafeZKey,
		RepeatabilitySamples: cfg.RepeatabilitySamples,
	}
	policy := burst.ParsePolicy{
		MeasurementPrefix: cfg.MeasurementPrefix,
		ErrorPrefix:       cfg.ErrorPrefix,
	}

	acquisition := app.NewAcquisitionService(transport, cfg.LogLookback, policy, logger.Named("acquisition"))
	executor := app.NewEffectExecutor(transport, acquisition, operator, logger.Named("executor"))

	// Services (primary ports implementation)
	probeTestService = app.NewProbeTestService(
		transport, executor, runRepo, exporter, operator, settings,
		rand.New(rand.NewSource(time.Now().UnixNano())), logger.Named("probe"),
	)
	runService = app.NewRunService(runRepo, exporter)
	doctorService = app.NewDoctorService(transport, settings)
	return nil
}
