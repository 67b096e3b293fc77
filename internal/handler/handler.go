package handler

import (
	"card-service/internal/ratelimit"
	"card-service/internal/upload"
	"card-service/pkg/config"
)

// Package-level collaborators, wired once at startup
var (
	cfg     *config.Config
	photos  upload.PhotoStore
	limiter *ratelimit.Limiter
)

// Init wires the handlers with their collaborators
func Init(c *config.Config, store upload.PhotoStore, l *ratelimit.Limiter) {
	cfg = c
	photos = store
	limiter = l
}
