// Command steptrace replays a recorded accelerometer stream through the step
// detector and reports the steps it finds.
//
// Input is either a sample file (CSV "ts_nanos,x,y,z" or JSON lines) or a
// capture session from the stepd database:
//
//	steptrace -csv walk.csv -config tuning.json -plot walk.png
//	steptrace -db-path stride_capture.db -session <id>
//	steptrace -db-path stride_capture.db -list
//	steptrace -url http://stepd.local:8080 -session <id>
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/httputil"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/security"
	"github.com/banshee-data/stride.report/internal/serialmux"
	"github.com/banshee-data/stride.report/internal/units"
	"github.com/banshee-data/stride.report/internal/version"
)

type options struct {
	csvPath     string
	dbPath      string
	baseURL     string
	session     string
	list        bool
	configPath  string
	axis        string
	plotPath    string
	jsonOut     bool
	quiet       bool
	speedUnits  string
	lengthUnits string

	// client fetches from stepd when baseURL is set.
	client httputil.HTTPClient
}

// fetchTimeout bounds each request to a remote stepd.
const fetchTimeout = 30 * time.Second

func main() {
	var o options
	flag.StringVar(&o.csvPath, "csv", "", "Sample file to replay")
	flag.StringVar(&o.dbPath, "db-path", "", "Capture database to read a session from")
	flag.StringVar(&o.baseURL, "url", "", "Base URL of a running stepd to read a session from")
	flag.StringVar(&o.session, "session", "", "Capture session ID to replay")
	flag.BoolVar(&o.list, "list", false, "List capture sessions and exit")
	flag.StringVar(&o.configPath, "config", "", "Tuning config JSON (defaults apply when empty)")
	flag.StringVar(&o.axis, "axis", "", "Axis to replay (defaults to the session axis, or z)")
	flag.StringVar(&o.plotPath, "plot", "", "Write PNG plots to this path")
	flag.BoolVar(&o.jsonOut, "json", false, "Print events and summary as JSON")
	flag.BoolVar(&o.quiet, "quiet", false, "Print only the summary")
	flag.StringVar(&o.speedUnits, "units", units.MPS, "Speed units for the summary")
	flag.StringVar(&o.lengthUnits, "length-units", units.Meters, "Length units for the summary")
	debug := flag.Bool("debug", false, "Log suppressed steps")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("steptrace"))
		return
	}

	o.client = httputil.NewStandardClient(&http.Client{Timeout: fetchTimeout})

	if *debug {
		monitoring.SetDiagnosticLogger(log.Printf)
	}
	if err := run(o, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(o options, w io.Writer) error {
	if !units.IsValidSpeed(o.speedUnits) {
		return fmt.Errorf("invalid units %q: expected one of %s", o.speedUnits, units.GetValidSpeedUnitsString())
	}
	if !units.IsValidLength(o.lengthUnits) {
		return fmt.Errorf("invalid length units %q: expected one of %s", o.lengthUnits, units.GetValidLengthUnitsString())
	}

	if o.plotPath != "" {
		if err := security.ValidateOutputPath(o.plotPath); err != nil {
			return fmt.Errorf("invalid plot path: %w", err)
		}
	}

	tuning := config.DefaultTuningConfig()
	if o.configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(o.configPath); err != nil {
			return fmt.Errorf("failed to load tuning config: %w", err)
		}
	}

	samples, sessionAxis, err := loadSamples(o, w)
	if err != nil || samples == nil {
		return err
	}

	axisName := o.axis
	if axisName == "" {
		axisName = sessionAxis
	}
	axis, err := serialmux.ParseAxis(axisName)
	if err != nil {
		return err
	}

	tr, err := Replay(samples, axis, tuning, o.plotPath != "")
	if err != nil {
		return err
	}
	summary := Summarize(tr)

	if o.jsonOut {
		out := struct {
			Events  any     `json:"events,omitempty"`
			Summary Summary `json:"summary"`
		}{Summary: summary}
		if !o.quiet {
			out.Events = tr.Events
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		if !o.quiet {
			WriteEvents(w, tr.Events)
			fmt.Fprintln(w)
		}
		WriteSummary(w, summary, o.speedUnits, o.lengthUnits)
	}

	if o.plotPath != "" {
		paths, err := SavePlots(tr, tuning.DetectorConfig(), o.plotPath)
		if err != nil {
			return err
		}
		for _, p := range paths {
			log.Printf("wrote %s", p)
		}
	}
	return nil
}

// loadSamples reads the replay input. It returns nil samples without error
// when the request was fully served (listing sessions).
func loadSamples(o options, w io.Writer) ([]serialmux.RawSample, string, error) {
	switch {
	case o.csvPath != "":
		samples, err := serialmux.LoadFixture(o.csvPath)
		if err != nil {
			return nil, "", err
		}
		return samples, string(serialmux.AxisZ), nil

	case o.dbPath != "":
		database, err := db.NewDBWithMigrationCheck(o.dbPath, true)
		if err != nil {
			return nil, "", err
		}
		defer database.Close()

		if o.list || o.session == "" {
			sessions, err := database.Sessions()
			if err != nil {
				return nil, "", err
			}
			printSessions(w, sessions)
			return nil, "", nil
		}

		session, err := database.Session(o.session)
		if err != nil {
			return nil, "", err
		}
		samples, err := database.SessionSamples(o.session)
		if err != nil {
			return nil, "", err
		}
		return samples, session.Axis, nil

	case o.baseURL != "":
		return fetchSamples(o, w)

	default:
		return nil, "", fmt.Errorf("one of -csv, -db-path or -url is required")
	}
}

// fetchSamples reads a capture session from a running stepd over its HTTP
// API. Without -session it lists the sessions instead.
func fetchSamples(o options, w io.Writer) ([]serialmux.RawSample, string, error) {
	client := o.client
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	base := strings.TrimSuffix(o.baseURL, "/")
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if o.list || o.session == "" {
		body, err := httputil.GetBody(ctx, client, base+"/api/sessions")
		if err != nil {
			return nil, "", err
		}
		var sessions []db.Session
		if err := json.Unmarshal(body, &sessions); err != nil {
			return nil, "", fmt.Errorf("failed to decode sessions: %w", err)
		}
		printSessions(w, sessions)
		return nil, "", nil
	}

	sessionURL := base + "/api/sessions/" + url.PathEscape(o.session)
	body, err := httputil.GetBody(ctx, client, sessionURL)
	if err != nil {
		return nil, "", err
	}
	var session db.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, "", fmt.Errorf("failed to decode session: %w", err)
	}

	body, err = httputil.GetBody(ctx, client, sessionURL+"/samples")
	if err != nil {
		return nil, "", err
	}
	samples, err := serialmux.ReadSamples(bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	return samples, session.Axis, nil
}

func printSessions(w io.Writer, sessions []db.Session) {
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  axis=%s  samples=%d  %s\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Axis, s.Samples, s.Note)
	}
}
