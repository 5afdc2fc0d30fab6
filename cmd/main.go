package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"forcedeck/controller"
	"forcedeck/models"
	"forcedeck/services/ingest"
	"forcedeck/services/live"
	"forcedeck/utils"
)

func main() {
	// ── CLI flags ────────────────────────────────────────────────────
	platePath := flag.String("plate", "config/plate.yaml", "path to plate.yaml")
	storagePath := flag.String("storage", "config/storage.yaml", "path to storage.yaml")
	logFile := flag.String("log", "", "optional log file path (stdout is always included)")
	protocolName := flag.String("protocol", "", "override session protocol: jump, balance or isometric")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	flag.Parse()

	if *listPorts {
		ports, err := ingest.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// ── Logger ───────────────────────────────────────────────────────
	logger := utils.InitLogger(utils.INFO, *logFile)
	defer logger.Close()

	// ── Load configs ─────────────────────────────────────────────────
	plateCfg, err := utils.LoadPlateConfig(*platePath)
	if err != nil {
		utils.L().Fatal("load plate config: %v", err)
	}
	storageCfg, err := utils.LoadStorageConfig(*storagePath)
	if err != nil {
		utils.L().Fatal("load storage config: %v", err)
	}
	if lvl, err := utils.ParseLogLevel(plateCfg.Log.Level); err != nil {
		utils.L().Warn("%v; keeping INFO", err)
	} else {
		logger.SetLevel(lvl)
	}

	if *protocolName != "" {
		plateCfg.Session.Protocol = *protocolName
	}
	protocol, err := models.ParseProtocol(plateCfg.Session.Protocol)
	if err != nil {
		utils.L().Fatal("session protocol: %v", err)
	}

	if !filepath.IsAbs(storageCfg.Storage.BaseDir) {
		abs, _ := filepath.Abs(storageCfg.Storage.BaseDir)
		storageCfg.Storage.BaseDir = abs
	}

	utils.L().Info("═══════════════════════════════════════════════════")
	utils.L().Info("  forcedeck  ·  dual force-plate acquisition")
	utils.L().Info("  protocol=%s  rate=%gHz  simulate=%v", protocol,
		plateCfg.Acquisition.SamplingRateHz, plateCfg.Simulation.Enabled)
	utils.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	utils.L().Info("═══════════════════════════════════════════════════")

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if d := plateCfg.Simulation.DurationSeconds; plateCfg.Simulation.Enabled && d > 0 {
		var timerCancel context.CancelFunc
		ctx, timerCancel = context.WithTimeout(ctx, time.Duration(d)*time.Second)
		defer timerCancel()
		utils.L().Info("simulated session will auto-stop after %ds", d)
	}

	// ── Pipeline assembly ────────────────────────────────────────────
	//
	//  PlateReader ──► samples chan ──► AcquisitionController ──► RecordingController
	//                                        │                      │         │
	//                                   live.Hub (ws)          samples.csv  metrics.csv

	var hub *live.Hub
	var publisher controller.Publisher
	if plateCfg.Live.Enabled {
		hub = live.NewHub(plateCfg.Live.RateHz)
		publisher = hub
		go hub.Run(ctx)
		go func() {
			if err := hub.ListenAndServe(ctx, plateCfg.Live.Addr); err != nil {
				utils.L().Error("live feed: %v", err)
			}
		}()
	}

	// 1. Sensors
	sensorCtrl := controller.NewSensorsController(plateCfg)
	if err := sensorCtrl.Start(ctx); err != nil {
		utils.L().Fatal("start plate reader: %v", err)
	}

	// 2. Gate
	acqCtrl := controller.NewAcquisitionController(protocol, publisher, plateCfg.Acquisition.ChannelBuffer)
	acqCtrl.Start(ctx, sensorCtrl.SamplesCh)

	// 3. Recording
	recordCtrl, err := controller.NewRecordingController(storageCfg, acqCtrl.SessionID())
	if err != nil {
		utils.L().Fatal("init recording controller: %v", err)
	}
	recordCtrl.Start(acqCtrl.Out)

	utils.L().Info("pipeline running — press Ctrl+C to stop")

	// ── Stats ticker ─────────────────────────────────────────────────
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

loop:
	for {
		select {
		case sig := <-sigCh:
			utils.L().Info("received signal: %v — shutting down…", sig)
			cancel()
			break loop
		case <-ctx.Done():
			break loop
		case <-statsTicker.C:
			utils.L().Info("── stats ─────────────────────────")
			sensorCtrl.LogStats()
			acqCtrl.LogStats()
			if hub != nil {
				utils.L().Info("  live     clients=%d", hub.Clients())
			}
			utils.L().Info("  rows written: %d", recordCtrl.RowsWritten())
			utils.L().Info("──────────────────────────────────")
		}
	}

	utils.L().Info("draining pipeline…")
	recordCtrl.Stop()

	summary := acqCtrl.Summary()
	if err := recordCtrl.WriteSummary(summary); err != nil {
		utils.L().Error("%v", err)
	}
	utils.L().Info("session %s: accepted=%d  mean GRF=%.1f N  mean FSI=%.1f%%  mean quality=%.1f",
		summary.SessionID, summary.Stats.Accepted, summary.MeanGRF, summary.MeanFSI, summary.MeanQuality)

	fmt.Println("\n✓ forcedeck finished. Session at:", recordCtrl.SessionDir())
}
