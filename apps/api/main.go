package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	_ "time/tzdata"

	dig_container "github.com/trezcool/studydesk/apps/api/di/dig"
	echoapi "github.com/trezcool/studydesk/apps/api/echo"
	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/schedule"
	"github.com/trezcool/studydesk/core/user"
	appfs "github.com/trezcool/studydesk/fs"
	genaisvc "github.com/trezcool/studydesk/services/genai"
	logsvc "github.com/trezcool/studydesk/services/logger"
	"github.com/trezcool/studydesk/storage"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger *logsvc.RollbarLogger,
		dbLoggerParam dig_container.DBLoggerParam,
		repos *storage.Repositories,
		aiClient *genaisvc.Client,
		calendarSvc calendar.ServiceInterface,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : %s", conf))
		defer apiLogger.Close()

		schedule.SetLogger(apiLogger)
		core.ParseEmailTemplates(appfs.FS, conf, apiLogger)
		user.LoadCommonPasswords(appfs.FS, apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := repos.Close(context.Background()); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer func() {
			if err := aiClient.Close(); err != nil {
				apiLogger.Error("closing AI client", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("database").Set(repos.Engine)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Background Jobs

		if conf.Jobs.Enabled {
			scheduler, err := newScheduler(conf, calendarSvc, apiLogger)
			if err != nil {
				apiLogger.Fatal("scheduling jobs", err)
				return
			}
			scheduler.Start()
			defer func() { <-scheduler.Stop().Done() }()
		}

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
