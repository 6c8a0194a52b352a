package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/kampala/campushub/apps/api/echo"
	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/attendance"
	"github.com/kampala/campushub/core/auth"
	"github.com/kampala/campushub/core/results"
	"github.com/kampala/campushub/core/schedule"
	restbackend "github.com/kampala/campushub/services/backend/rest"
	emailsvc "github.com/kampala/campushub/services/email"
	logsvc "github.com/kampala/campushub/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	backend := restbackend.NewClient(conf, logger)

	engine := auth.NewEngine(auth.Deps{
		Sessions: backend,
		Profiles: backend,
		Logger:   logger,
		Mail:     mailSvc,
		Conf:     conf,
	})

	announceSvc := announce.NewService(backend)
	scheduleSvc := schedule.NewService(backend)
	attendanceSvc := attendance.NewService(backend)
	resultsSvc := results.NewService(backend)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Session Engine

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return engine.Run(gctx)
	})
	group.Go(func() error {
		states, unsubscribe := engine.Subscribe()
		defer unsubscribe()
		for {
			select {
			case <-gctx.Done():
				return nil
			case st := <-states:
				logger.Info(fmt.Sprintf("session state: phase=%s loading=%t authenticated=%t",
					st.Phase, st.Loading, st.Authenticated()))
			}
		}
	})

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Engine:        engine,
			AnnounceSvc:   announceSvc,
			ScheduleSvc:   scheduleSvc,
			AttendanceSvc: attendanceSvc,
			ResultsSvc:    resultsSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// stop the engine and its watchers
		cancel()
		if err := group.Wait(); err != nil {
			logger.Error(fmt.Sprintf("engine stopped with error: %v", err), err)
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
