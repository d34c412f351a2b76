package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/browse"
	"github.com/abelbrown/catalog/internal/config"
	"github.com/abelbrown/catalog/internal/location"
	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/store"
	"github.com/abelbrown/catalog/internal/ui"
)

func browseCmd() *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "Open the interactive browser (default command)",
		ArgsUsage: "[address]",
		Action:    browseAction,
	}
}

// browseAction runs the TUI until the user quits, then prints the final
// address so the view can be shared or reopened.
func browseAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return outputError(err)
	}

	if err := logging.Init(filepath.Join(config.Dir(), "logs"), Version); err != nil {
		return outputError(err)
	}
	defer logging.Close()

	events, err := otel.Open(cfg.EventLog)
	if err != nil {
		logging.Warn("event log unavailable, continuing without it", "err", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: Version})

	// History is optional; the browser works without it.
	var history browse.History
	if st, err := store.Open(cfg.HistoryDB); err != nil {
		logging.Warn("search history unavailable", "path", cfg.HistoryDB, "err", err)
		events.Error(otel.KindStoreError, "main", err)
	} else {
		defer st.Close()
		history = st
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer shutdown(srv)
	}

	addr := cfg.BasePath
	if c.NArg() > 0 {
		addr = c.Args().First()
	}
	loc := location.NewMemory(addr)
	logging.Info("browse started", "addr", addr, "events_session", events.SessionID())
	client := newClient(cfg)

	var program *tea.Program
	session := browse.New(browse.Deps{
		Searcher: client,
		Location: loc,
		Catalog:  client,
		History:  history,
		Events:   events,
		Delay:    cfg.Debounce(),
		Notify:   func(msg tea.Msg) { program.Send(msg) },
	})
	app := ui.NewApp(session, ui.Options{Events: events, Ring: ring})
	program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(c.Context))

	_, runErr := program.Run()
	session.Update(browse.Dispose{})
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main", Addr: loc.Current()})

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		logging.Error("program exited", "err", runErr)
		return outputError(runErr)
	}
	fmt.Fprintln(c.App.Writer, loc.Current())
	return nil
}

// serveMetrics exposes the default Prometheus registry on addr.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	logging.Info("serving metrics", "addr", addr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
