package main

import (
	"context"
	"time"

	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/coordinator"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/os"
)

var Version = "?"

func main() {
	conf := config.NewConfig()
	conf.ParseFlags()

	log := logger.NewConsole(conf.Coordinator.Debug, "c", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	c, err := coordinator.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("the coordinator couldn't start")
	}
	c.Run()

	<-os.ExpectTermination()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
