package server

import (
	"context"

	"github.com/codesync/codesync/pkg/logger"
)

type Server interface {
	Run()
	Shutdown(ctx context.Context) error
}

type Services struct {
	list []Server
	log  *logger.Logger
}

func New(log *logger.Logger) Services { return Services{log: log} }

func (svs *Services) Add(services ...Server) {
	for _, s := range services {
		if s != nil {
			svs.list = append(svs.list, s)
		}
	}
}

func (svs *Services) Start() {
	for _, s := range svs.list {
		s.Run()
	}
}

func (svs *Services) Stop(ctx context.Context) error {
	var err error
	for _, s := range svs.list {
		if e := s.Shutdown(ctx); e != nil {
			svs.log.Error().Err(e).Msg("service shutdown fail")
			err = e
		}
	}
	return err
}
