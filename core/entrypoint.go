package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"
	"go.uber.org/multierr"
)

func setupDebugging() {
	if state.DBG_debug {
		go func() {
			log.Println(http.ListenAndServe("0.0.0.0:6060", nil))
		}()
	}
}

func ReadCampusConfig(campusPath string) (*state.CampusCfg, error) {
	var campusCfg state.CampusCfg
	file, err := os.ReadFile(campusPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &campusCfg)
	if err != nil {
		return nil, err
	}
	return &campusCfg, nil
}

func ReadNodeConfig(nodePath string) (*state.LocalCfg, error) {
	var nodeCfg state.LocalCfg
	file, err := os.ReadFile(nodePath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &nodeCfg)
	if err != nil {
		return nil, err
	}
	return &nodeCfg, nil
}

// LoadConfig reads, expands and validates both config files.
func LoadConfig(campusPath, nodePath string) (*state.CampusCfg, *state.LocalCfg, error) {
	campusCfg, err := ReadCampusConfig(campusPath)
	if err != nil {
		return nil, nil, err
	}
	nodeCfg, err := ReadNodeConfig(nodePath)
	if err != nil {
		return nil, nil, err
	}
	state.ExpandLocalConfig(nodeCfg)
	if err = state.CampusConfigValidator(campusCfg); err != nil {
		return nil, nil, err
	}
	if err = state.NodeConfigValidator(nodeCfg); err != nil {
		return nil, nil, err
	}
	return campusCfg, nodeCfg, nil
}

// Bootstrap runs an rbridge until it is stopped by a signal or a fatal error.
func Bootstrap(campusPath, nodePath, logPath string, verbose bool) error {
	setupDebugging()
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	campusCfg, nodeCfg, err := LoadConfig(campusPath, nodePath)
	if err != nil {
		return err
	}
	if logPath != "" {
		nodeCfg.LogPath = logPath
	}
	return Start(*campusCfg, *nodeCfg, level, nil)
}

// NewLogger writes to the console and, if the node config names one, to a log file.
func NewLogger(ncfg state.LocalCfg, logLevel slog.Level) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: ncfg.Id,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if ncfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(ncfg.LogPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(ncfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// Start runs the rbridge on the calling goroutine until it stops.
func Start(ccfg state.CampusCfg, ncfg state.LocalCfg, logLevel slog.Level, clk clock.Clock) error {
	logger, err := NewLogger(ncfg, logLevel)
	if err != nil {
		return err
	}
	s, dispatch := NewState(ccfg, ncfg, logger, clk)
	return Run(s, dispatch)
}

// NewState builds the environment of an rbridge without starting it. clk may
// be nil to use the wall clock.
func NewState(ccfg state.CampusCfg, ncfg state.LocalCfg, logger *slog.Logger, clk clock.Clock) (*state.State, <-chan func(*state.State) error) {
	ctx, cancel := context.WithCancelCause(context.Background())
	dispatch := make(chan func(env *state.State) error, 128)
	s := &state.State{
		Modules: make(map[string]state.RbModule),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			CampusCfg:       ccfg,
			LocalCfg:        ncfg,
			Log:             logger,
			Clock:           clk,
		},
	}
	return s, dispatch
}

// Run initializes the modules and runs the main loop. It returns the error
// that stopped the rbridge, if any.
func Run(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Info("init modules")
	err := initModules(s)
	if err != nil {
		return multierr.Append(err, Stop(s))
	}
	s.Log.Info("init modules complete")

	s.Log.Info("rbridge has been initialized. To gracefully exit, send SIGINT or Ctrl+C.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			s.Cancel(errors.New("received shutdown signal"))
		case <-s.Context.Done():
			return
		}
	}()

	return MainLoop(s, dispatch)
}

func initModules(s *state.State) error {
	var modules []state.RbModule
	modules = append(modules, &Trill{})
	modules = append(modules, &Inspector{})

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return fmt.Errorf("init %T: %w", module, err)
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	var fatal error
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				fatal = err
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.SlowDispatchThreshold {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
			if fatal != nil {
				goto endLoop
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	return multierr.Append(fatal, Stop(s))
}

// Stop cancels the rbridge and cleans up every module. Cleanup errors are combined.
func Stop(s *state.State) error {
	if s.Stopping.Swap(true) {
		return nil // don't stop twice
	}
	s.Cancel(context.Canceled)
	if s.DispatchChannel != nil {
		close(s.DispatchChannel)
		s.DispatchChannel = nil
	}
	s.Log.Info("cleaning up modules")
	var errs error
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", moduleName, err))
		}
	}
	s.Log.Info("stopped")
	return errs
}
