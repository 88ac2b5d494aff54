package middleware

import (
	"journal/config"
	"journal/internal/services"
	"journal/pkg/logger"
)

type Middleware struct {
	Config   config.Config
	verifier services.TokenVerifier
	log      logger.Logger
}

func New(config config.Config, verifier services.TokenVerifier) Middleware {
	return Middleware{
		Config:   config,
		verifier: verifier,
		log:      logger.New("middleware"),
	}
}
