package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gwburst/eccfit/internal/artifacts"
	"github.com/gwburst/eccfit/internal/catalog"
	"github.com/gwburst/eccfit/internal/config"
	"github.com/gwburst/eccfit/internal/eccprior"
	"github.com/gwburst/eccfit/internal/metrics"
	"github.com/gwburst/eccfit/internal/models"
	"github.com/gwburst/eccfit/internal/posterior"
	"github.com/gwburst/eccfit/internal/sampler"
	"github.com/gwburst/eccfit/internal/utils"
	"github.com/gwburst/eccfit/internal/wavelet"
)

type flags struct {
	configPath string
	mtot       float64
	massRatio  float64
	anchorIdx  int
	burstFile  string
	burstIdx   int
	walkers    int
	runs       int
	verbose    bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.Float64Var(&f.mtot, "mtot", 0, "Total mass of the source (solar masses, required)")
	flag.Float64Var(&f.massRatio, "mass-ratio", 0, "Mass ratio (required)")
	flag.IntVar(&f.anchorIdx, "anchor-idx", -1, "Anchor burst index (required)")
	flag.StringVar(&f.burstFile, "burst-file", "", "Burst catalog location (required)")
	flag.IntVar(&f.burstIdx, "burst-idx", -1, "Index of the lowest burst in the set of three (required)")
	flag.IntVar(&f.walkers, "walkers", 0, "Number of walkers (overrides config)")
	flag.IntVar(&f.runs, "runs", 0, "Number of MCMC iterations (overrides config)")
	flag.BoolVar(&f.verbose, "v", false, "Print verbose output")
	flag.Parse()

	if f.mtot <= 0 || f.massRatio <= 0 || f.anchorIdx < 0 || f.burstFile == "" || f.burstIdx < 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", f.configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if f.walkers > 0 {
		cfg.Sampler.Walkers = f.walkers
	}
	if f.runs > 0 {
		cfg.Sampler.Runs = f.runs
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Output.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Output.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Output.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", slog.Any("error", err))
			}
		}()
	}

	if err := run(ctx, cfg, f, logger); err != nil {
		logger.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("eccfit finished")
}

func run(ctx context.Context, cfg *config.Config, f flags, logger *slog.Logger) error {
	records, err := catalog.Load(f.burstFile)
	if err != nil {
		return err
	}
	triplet, err := catalog.Triplet(records, f.burstIdx)
	if err != nil {
		return err
	}
	meta, err := catalog.MetaFor(records, f.anchorIdx, f.mtot, f.massRatio)
	if err != nil {
		return err
	}
	tmin, tmax, err := catalog.Window(records, f.burstIdx)
	if err != nil {
		return err
	}
	logger.Info("analysis window derived",
		slog.Float64("tmin", tmin),
		slog.Float64("tmax", tmax),
		slog.Float64("chirp_mass", meta.ChirpMass))

	// Synthetic injection: the three catalog bursts at a common amplitude,
	// quality factor, and phase.
	var injected [3]models.Wavelet
	for i, b := range triplet {
		injected[i] = models.Wavelet{
			Time:  b.Time,
			Freq:  b.Freq,
			Amp:   cfg.Injection.Amp,
			Q:     cfg.Injection.Q,
			Phase: cfg.Injection.Phase,
		}
	}
	times := floats.Span(make([]float64, cfg.Injection.GridSamples), tmin, tmax)
	ds := models.Dataset{Times: times, Strain: wavelet.Composite(times, injected)}

	if err := artifacts.WriteDataset(filepath.Join(cfg.Output.Dir, "data_set.txt"), ds); err != nil {
		return err
	}
	if err := artifacts.PlotWaveform(filepath.Join(cfg.Output.Dir, "wavelets.png"), ds); err != nil {
		return err
	}
	if err := artifacts.WriteMetaJSON(filepath.Join(cfg.Output.Dir, "meta_params.json"), meta); err != nil {
		return err
	}
	if err := artifacts.WriteWaveletJSON(filepath.Join(cfg.Output.Dir, "wavelet_params.json"), injected); err != nil {
		return err
	}

	var priorOpts []eccprior.Option
	if cfg.Prior.TimeTolerance > 0 || cfg.Prior.FreqTolerance > 0 {
		priorOpts = append(priorOpts, eccprior.WithTolerances(cfg.Prior.TimeTolerance, cfg.Prior.FreqTolerance))
	}
	prior := eccprior.New(tmin, tmax, priorOpts...)

	eval, err := posterior.NewEvaluator(ds.Times, ds.Strain, prior)
	if err != nil {
		return err
	}

	ref := models.ParamVector{Wavelets: injected, Meta: meta}
	logBest(logger, eval, prior, ref, ds)

	seed := cfg.Sampler.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		logger.Info("seed derived from clock", slog.Uint64("seed", seed))
	}

	logger.Info("initializing walkers", slog.Int("walkers", cfg.Sampler.Walkers))
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	p0, err := eval.InitWalkers(ref, cfg.Sampler.Walkers, src)
	if err != nil {
		return err
	}

	smp, err := sampler.New(sampler.Config{
		Walkers:      cfg.Sampler.Walkers,
		Dim:          models.Dim,
		Workers:      cfg.Sampler.Workers,
		StretchScale: cfg.Sampler.StretchScale,
		Seed:         seed + 1,
	}, eval.LogPosteriorFlat, logger)
	if err != nil {
		return err
	}

	logger.Info("running burn-in")
	if err := smp.Burnin(ctx, p0, cfg.Sampler.BurninTestSteps, cfg.Sampler.Runs/2); err != nil {
		return err
	}

	logger.Info("running MCMC", slog.Int("iterations", cfg.Sampler.Runs))
	if err := smp.Run(ctx, cfg.Sampler.Runs, cfg.Sampler.UpdateInterval); err != nil {
		return err
	}

	samples := smp.FlatSamples(1)
	logger.Info("sampling complete",
		slog.Int("samples", len(samples)),
		slog.Float64("acceptance", smp.AcceptanceRate()))
	logSampleSummary(logger, samples)

	if err := artifacts.WriteChains(filepath.Join(cfg.Output.Dir, "chains.npy"), smp.Chain()); err != nil {
		return err
	}
	if err := artifacts.WriteSamples(filepath.Join(cfg.Output.Dir, "samples.txt"), samples); err != nil {
		return err
	}
	if err := artifacts.WriteLogPost(filepath.Join(cfg.Output.Dir, "logpost.txt"), smp.LogProbHistory()); err != nil {
		return err
	}
	return nil
}

// logBest reports the posterior breakdown at the injected truth, the
// reference every fit should be judged against.
func logBest(logger *slog.Logger, eval *posterior.Evaluator, prior *eccprior.Prior, ref models.ParamVector, ds models.Dataset) {
	logEcc := prior.LogPrior(ref.Centroids(), ref.Meta)
	logLike := wavelet.LogLikelihood(ds.Strain, ds.Strain)
	logSig := 0.0
	for _, w := range ref.Wavelets {
		logSig += wavelet.SignalLogPrior(w.Amp, w.Freq, w.Q)
	}
	logger.Info("posterior at injected values",
		slog.Float64("eccprior", logEcc),
		slog.Float64("likelihood", logLike),
		slog.Float64("signal_prior", logSig),
		slog.Float64("posterior", eval.LogPosterior(ref)))
}

func logSampleSummary(logger *slog.Logger, samples [][]float64) {
	if len(samples) == 0 {
		return
	}
	col := make([]float64, len(samples))
	for d := 0; d < len(samples[0]); d++ {
		for i, s := range samples {
			col[i] = s[d]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if math.IsNaN(std) {
			std = 0
		}
		logger.Debug("posterior marginal",
			slog.Int("dim", d),
			slog.Float64("mean", mean),
			slog.Float64("stddev", std))
	}
}
