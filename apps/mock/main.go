package main

import (
	"log"
	"os"

	"github.com/kampala/campushub/core"
	logsvc "github.com/kampala/campushub/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewConsoleLogger(
		log.New(os.Stdout, "MOCK : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	)

	srv := newMockServer(conf)

	logger.Info("mock API listening on " + conf.Server.Addr)
	if err := srv.app().Start(conf.Server.Addr); err != nil {
		logger.Fatal("server stopped: "+err.Error(), err)
	}
}
