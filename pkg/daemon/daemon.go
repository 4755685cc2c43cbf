package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/events"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/monitor"
	"github.com/charlie0129/padbatt/pkg/notify"
)

// server holds everything the HTTP handlers operate on.
type server struct {
	conf       config.Config
	monitor    *monitor.Monitor
	watcher    *input.Watcher
	dispatcher *notify.Dispatcher
	hub        *events.EventHub

	// closing is closed on shutdown to end event streams.
	closing chan struct{}
}

func newServer(conf config.Config, source input.Source, deliverers ...notify.Deliverer) (*server, error) {
	policy, err := monitor.ParsePolicy(conf.MultiControllerPolicy())
	if err != nil {
		return nil, err
	}

	hub := events.NewEventHub()

	dispatcher := notify.NewDispatcher(conf.AppName(), hub, deliverers...)
	dispatcher.SetEnabled(conf.Notifications())

	m := monitor.New(monitor.Options{
		UpdateFrequency: time.Duration(conf.UpdateFrequencyMs()) * time.Millisecond,
		Policy:          policy,
		Renderer:        newSnapshotPublisher(hub),
		Notifier:        dispatcher,
	})

	return &server{
		conf:       conf,
		monitor:    m,
		watcher:    input.NewWatcher(source, time.Duration(conf.ScanIntervalMs())*time.Millisecond),
		dispatcher: dispatcher,
		hub:        hub,
		closing:    make(chan struct{}),
	}, nil
}

func (s *server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/snapshot", s.getSnapshot)
	router.GET("/status", s.getStatus)
	router.GET("/controllers", s.getControllers)
	router.GET("/config", s.getConfig)
	router.PUT("/update-frequency", s.setUpdateFrequency)
	router.PUT("/notifications", s.setNotifications)
	router.PUT("/multi-controller-policy", s.setMultiControllerPolicy)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	return router
}

// startBridge feeds watcher events into the monitor until the watcher
// stops. The returned channel is closed once no more Attach or Detach calls
// can happen.
func (s *server) startBridge() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range s.watcher.Events() {
			switch ev.Kind {
			case input.Attached:
				s.monitor.Attach(ev.Handle)
			case input.Detached:
				s.monitor.Detach(ev.Handle)
			}
		}
	}()
	return done
}

// reload re-reads the config file and applies what can change at runtime.
func (s *server) reload() {
	oldBackend, oldScan := s.conf.Backend(), s.conf.ScanIntervalMs()

	if err := s.conf.Load(); err != nil {
		logrus.Errorf("failed to reload config: %v", err)
		return
	}

	if d := time.Duration(s.conf.UpdateFrequencyMs()) * time.Millisecond; d != s.monitor.UpdateFrequency() {
		if err := s.monitor.SetUpdateFrequency(d); err != nil {
			logrus.Errorf("failed to apply update frequency: %v", err)
		}
	}
	if p, err := monitor.ParsePolicy(s.conf.MultiControllerPolicy()); err == nil {
		s.monitor.SetPolicy(p)
	}
	s.dispatcher.SetEnabled(s.conf.Notifications())

	if s.conf.Backend() != oldBackend || s.conf.ScanIntervalMs() != oldScan {
		logrus.Warn("backend and scan interval changes take effect after a restart")
	}

	logrus.WithFields(s.conf.LogrusFields()).Info("config reloaded")
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	source, err := newSource(conf)
	if err != nil {
		logrus.Fatalf("failed to open input backend: %v", err)
	}

	var deliverers []notify.Deliverer
	desktop, err := notify.NewDesktop(conf.AppName())
	if err != nil {
		logrus.Warnf("desktop notifications disabled: %v", err)
	} else {
		deliverers = append(deliverers, desktop)
	}

	s, err := newServer(conf, source, deliverers...)
	if err != nil {
		logrus.Fatalf("failed to set up monitor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigc:
				s.reload()
			}
		}
	}()

	if err := config.Watch(ctx, configPath, s.reload); err != nil {
		logrus.Warnf("config hot reload disabled: %v", err)
	}

	srv := &http.Server{
		Handler: s.setupRoutes(),
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Fatal(err)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	go s.watcher.Run(ctx)
	bridgeDone := s.startBridge()

	go func() {
		if err := s.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("monitor loop exited unexpectedly: %v", err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	cancel()
	close(s.closing)

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	// Attach and Detach may still raise notifications until the bridge ends.
	<-bridgeDone

	logrus.Info("waiting for pending notifications")
	s.dispatcher.Wait()

	logrus.Info("closing input backend")
	if err := source.Close(); err != nil {
		logrus.Errorf("failed to close input backend: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
