package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/stride.report/internal/api"
	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/serialmux"
	"github.com/banshee-data/stride.report/internal/stepdetect"
	"github.com/banshee-data/stride.report/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "HTTP listen address")
	configFile    = flag.String("config", "", "Path to tuning config JSON (defaults apply when empty)")
	devMode       = flag.Bool("dev", false, "Replay a fixture (or a synthetic walk) instead of reading the sensor")
	fixture       = flag.String("fixture", "", "Sample fixture replayed in dev mode")
	port          = flag.String("port", "/dev/ttyUSB0", "Serial port of the accelerometer (ignored in dev mode)")
	serialOpts    = flag.String("serial-options", "", `Serial options as JSON, e.g. {"baud_rate":230400}`)
	disableSensor = flag.Bool("disable-sensor", false, "Run without a sensor; the API stays up")
	axisFlag      = flag.String("axis", "z", "Accelerometer axis fed to the detector (x, y or z)")
	detectorName  = flag.String("detector", stepdetect.DetectorMovingAverage, "Detector: moving_average or null")
	dbFile        = flag.String("db-path", "stride_capture.db", "Path to the capture database")
	record        = flag.Bool("record", false, "Record raw samples into a new capture session")
	note          = flag.String("note", "", "Note stored with the capture session")
	speedUnits    = flag.String("units", "mps", "Walking speed units for the API (mps, mph, kmph, kph)")
	lengthUnits   = flag.String("length-units", "m", "Stride length units for the API (m, cm, ft, in)")
	debug         = flag.Bool("debug", false, "Log suppressed steps and other per-step diagnostics")
	versionFlag   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.String("stepd"))
		return
	}

	if flag.NArg() > 0 {
		switch flag.Arg(0) {
		case "migrate":
			db.RunMigrateCommand(flag.Args()[1:], *dbFile)
			return
		case "ports":
			ports, err := serialmux.ListPorts()
			if err != nil {
				log.Fatalf("failed to list serial ports: %v", err)
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return
		default:
			log.Fatalf("unknown command %q", flag.Arg(0))
		}
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *debug {
		monitoring.SetDiagnosticLogger(log.Printf)
	}

	tuning := config.DefaultTuningConfig()
	if *configFile != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configFile); err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	axis, err := serialmux.ParseAxis(*axisFlag)
	if err != nil {
		log.Fatalf("invalid axis: %v", err)
	}

	det, dispatcher, err := newDetector(*detectorName, tuning)
	if err != nil {
		log.Fatalf("failed to create detector: %v", err)
	}
	defer closeDispatcher(dispatcher)
	det.AddStepListener(stepdetect.ListenerFunc(func(ev stepdetect.StepEvent) {
		monitoring.Diagf("step: %s", ev)
	}))

	sensor, err := newSensorMux(sensorFlags{
		disabled:      *disableSensor,
		dev:           *devMode,
		fixture:       *fixture,
		port:          *port,
		serialOptions: *serialOpts,
	})
	if err != nil {
		log.Fatalf("failed to create sensor port: %v", err)
	}
	defer sensor.Close()

	if err := sensor.Initialize(); err != nil {
		log.Fatalf("failed to initialize sensor: %v", err)
	}
	log.Printf("initialized sensor (axis=%s detector=%s)", axis, *detectorName)

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	pipeline := serialmux.NewPipeline(axis, det)
	var recorder *db.Recorder
	if *record {
		session, err := database.CreateSession(string(axis), *note)
		if err != nil {
			log.Fatalf("failed to create capture session: %v", err)
		}
		recorder = database.NewRecorder(session.ID, db.DefaultBatchSize)
		pipeline.Recorder = recorder
		log.Printf("recording capture session %s", session.ID)
	}

	history := api.NewHistory(api.DefaultHistorySize)
	sampler := &api.Sampler{Source: det, History: history}

	// Create a wait group for the HTTP server, sensor monitor, pipeline and sampler routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sensor.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor sensor port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// route sensor lines into the detector
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pipeline.Run(ctx, sensor); err != nil && err != context.Canceled {
			log.Printf("pipeline stopped: %v", err)
		}
		log.Print("pipeline routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sampler.Run(ctx)
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(det, api.Options{
			SpeedUnits:  *speedUnits,
			LengthUnits: *lengthUnits,
			History:     history,
			DB:          database,
			Pipeline:    pipeline,
		}).ServeMux()

		// admin debugging routes, reachable only from localhost or over Tailscale
		sensor.AttachAdminRoutes(mux)
		if err := database.AttachAdminRoutes(mux); err != nil {
			log.Printf("failed to attach database admin routes: %v", err)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.Printf("failed to close capture session: %v", err)
		}
	}
	st := det.State()
	log.Printf("processed %d samples, %d steps (%d parsed lines, %d malformed)",
		st.Samples, st.Steps, pipeline.Samples(), pipeline.Malformed())
	log.Printf("Graceful shutdown complete")
}
