package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
	"github.com/ohowland/gridfault/internal/pkg/config"
	"github.com/ohowland/gridfault/internal/pkg/metrics"
	"github.com/ohowland/gridfault/internal/pkg/msg"
	"github.com/ohowland/gridfault/internal/pkg/powerflow"
	"github.com/ohowland/gridfault/internal/pkg/runner"
	"github.com/ohowland/gridfault/internal/pkg/webservice"
)

func main() {
	configPath := flag.String("config", "./config/gridfault.json", "path to the configuration file")
	name := flag.String("scenario", "", "scenario to run, or \"all\"")
	serve := flag.Bool("serve", false, "serve the HTTP interface")
	flag.Parse()

	log.Println("[Main] Starting gridfault")

	log.Println("[Main] Loading Configuration")
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalln("[Main]", err)
	}

	log.Println("[Main] Building Runner")
	reg := metrics.NewRegistry()
	opts := append(cfg.ResolverOptions(), powerflow.WithObserver(reg))
	r, err := runner.New(catalog.New(), powerflow.NewResolver(opts...), runner.WithRecorder(reg))
	if err != nil {
		log.Fatalln("[Main]", err)
	}
	stop, err := watch(r)
	if err != nil {
		log.Fatalln("[Main]", err)
	}
	defer stop()

	switch {
	case *name == "all":
		reports, err := r.RunAll()
		if err != nil {
			log.Fatalln("[Main]", err)
		}
		emit(reports)
	case *name != "":
		report, err := r.Run(*name)
		if err != nil {
			log.Fatalln("[Main]", err)
		}
		emit(report)
	case !*serve:
		report, err := r.Baseline()
		if err != nil {
			log.Fatalln("[Main]", err)
		}
		emit(report)
	}

	if *serve {
		app := webservice.App{
			Runner:  r,
			Metrics: reg.Handler(),
			Config:  webservice.Config{Addr: cfg.Webservice.Addr},
		}
		if err := app.ListenAndServe(); err != nil {
			log.Fatalln("[Main]", err)
		}
	}
	log.Println("[Main] Stopping gridfault")
}

// loadConfig falls back to the built-in configuration when the default
// file is absent.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "./config/gridfault.json" {
		log.Println("[Main] No configuration file, using defaults")
		return config.Default(), nil
	}
	return config.Load(path)
}

// watch logs the publisher's run starts and outcomes. The returned stop
// unsubscribes and waits for the logger to drain.
func watch(p msg.Publisher) (func(), error) {
	pid := uuid.New()
	status, err := p.Subscribe(pid, msg.Status)
	if err != nil {
		return nil, err
	}
	results, err := p.Subscribe(pid, msg.Result)
	if err != nil {
		p.Unsubscribe(pid)
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for status != nil || results != nil {
			select {
			case m, ok := <-status:
				if !ok {
					status = nil
					continue
				}
				log.Printf("[Main] %v", m.Payload())
			case m, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				if report, ok := m.Payload().(runner.Report); ok {
					log.Printf("[Main] %s finished, converged=%v", report.Scenario, report.Result.Converged)
				}
			}
		}
	}()

	return func() {
		p.Unsubscribe(pid)
		<-done
	}, nil
}

func emit(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalln("[Main]", err)
	}
}
