// Command simulate drives one or more episodes of the quadsim simulator
// from a TOML scenario file, analogous to the teacher's cmd/mission: all it
// does is read configuration and wire together the library pieces (drone,
// controller, logger) described in SPEC_FULL.md §4.13. The core algorithm
// lives in the quadsim package; this binary is glue.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"quadsim"
)

const (
	defaultScenario = "~~unset~~"
	// simChunk bounds how much wall-clock time is handed to SimulateDelta in
	// one call, so a multi-second episode doesn't run as a single
	// uninterruptible burst (SPEC_FULL.md §5: callers choose Δwall to bound it).
	simChunk = 50 * time.Millisecond
)

var (
	scenarioFlag    string
	metricsAddrFlag string
)

func init() {
	flag.StringVar(&scenarioFlag, "scenario", defaultScenario, "scenario TOML file")
	flag.StringVar(&metricsAddrFlag, "metrics-addr", "", "if set, serve Prometheus metrics (first episode's registry) on this host:port")
}

func main() {
	flag.Parse()
	if scenarioFlag == defaultScenario {
		fmt.Fprintln(os.Stderr, "simulate: no -scenario provided")
		os.Exit(1)
	}

	cfgPath := strings.TrimSuffix(scenarioFlag, ".toml")
	viper.SetConfigName(cfgPath)
	viper.AddConfigPath(".")
	viper.SetConfigType("toml")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: ./%s.toml: %s\n", cfgPath, err)
		os.Exit(1)
	}

	stdout := kitlog.NewSyncWriter(os.Stdout)
	root := kitlog.NewLogfmtLogger(stdout)

	dronePath := viper.GetString("drone.config")
	droneFile, err := os.Open(dronePath)
	if err != nil {
		root.Log("level", "critical", "subsys", "cli", "err", err)
		os.Exit(1)
	}
	droneCfg, err := quadsim.LoadDroneConfig(droneFile)
	droneFile.Close()
	if err != nil {
		root.Log("level", "critical", "subsys", "cli", "err", err)
		os.Exit(1)
	}

	duration := viper.GetDuration("mission.duration")
	dtFC := viper.GetDuration("mission.dt_fc").Seconds()
	episodes := viper.GetInt("mission.episodes")
	if episodes < 1 {
		episodes = 1
	}
	baseSeed := viper.GetUint64("mission.seed")

	channels := quadsim.Channels{
		Throttle: viper.GetFloat64("channels.throttle"),
		Roll:     viper.GetFloat64("channels.roll"),
		Pitch:    viper.GetFloat64("channels.pitch"),
		Yaw:      viper.GetFloat64("channels.yaw"),
	}

	controllerKind := viper.GetString("controller.type")
	loggerKind := viper.GetString("logger.type")
	csvDir := viper.GetString("logger.csv_dir")

	results := make([]*quadsim.Simulator, episodes)

	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < episodes; i++ {
		i := i
		group.Go(func() error {
			simID := fmt.Sprintf("%s-%d", uuid.NewString(), i)
			seed := baseSeed + uint64(i)

			drone, err := quadsim.NewDrone(droneCfg, seed)
			if err != nil {
				return fmt.Errorf("episode %d: building drone: %w", i, err)
			}

			controller, err := buildController(controllerKind, dtFC)
			if err != nil {
				return fmt.Errorf("episode %d: %w", i, err)
			}

			logger, closeLogger, err := buildLogger(loggerKind, csvDir, simID)
			if err != nil {
				return fmt.Errorf("episode %d: %w", i, err)
			}
			defer closeLogger()

			sim := quadsim.NewSimulator(drone, controller, logger, 0)
			sim.SetSimulationID(simID)
			sim.SetStatusLog(quadsim.NewStatusLogger(stdout, simID))
			results[i] = sim

			elapsed := time.Duration(0)
			for elapsed < duration {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				step := simChunk
				if duration-elapsed < step {
					step = duration - elapsed
				}
				if _, err := sim.SimulateDelta(step.Seconds(), channels); err != nil {
					return fmt.Errorf("episode %d: %w", i, err)
				}
				elapsed += step
			}
			if err := logger.Flush(); err != nil {
				return fmt.Errorf("episode %d: flushing logger: %w", i, err)
			}
			root.Log("level", "notice", "subsys", "cli", "episode", i, "simulation", simID, "status", "complete")
			return nil
		})
	}

	if metricsAddrFlag != "" {
		mux := http.NewServeMux()
		go func() {
			// The registry is only populated once the first episode's
			// Simulator has been constructed; scraping before that returns
			// an empty body rather than blocking startup.
			mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if len(results) == 0 || results[0] == nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				promhttp.HandlerFor(results[0].Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
			}))
			if err := http.ListenAndServe(metricsAddrFlag, mux); err != nil {
				root.Log("level", "error", "subsys", "metrics", "err", err)
			}
		}()
	}

	if err := group.Wait(); err != nil {
		root.Log("level", "critical", "subsys", "cli", "err", err)
		os.Exit(1)
	}
}

func buildController(kind string, dtFC float64) (quadsim.Controller, error) {
	if dtFC <= 0 {
		dtFC = 0.005
	}
	switch kind {
	case "", "passthrough":
		return quadsim.NewPassThroughController(quadsim.DefaultMotorPWMs, dtFC), nil
	case "stabilizing":
		gains := [3]float64{0.6, 0.6, 0.4}
		return quadsim.NewStabilizingController(dtFC, gains, [3]float64{}, [3]float64{}), nil
	default:
		return nil, fmt.Errorf("unknown controller.type %q", kind)
	}
}

func buildLogger(kind, csvDir, simID string) (quadsim.Logger, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case "", "memory":
		return quadsim.NewMemoryLogger(), noop, nil
	case "csv":
		if csvDir == "" {
			csvDir = "."
		}
		f, err := os.Create(fmt.Sprintf("%s/%s.csv", csvDir, simID))
		if err != nil {
			return nil, nil, fmt.Errorf("creating csv log: %w", err)
		}
		return quadsim.NewCSVLogger(f), f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown logger.type %q", kind)
	}
}
