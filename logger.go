package main

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newLogger builds a sugared zap logger: JSON in prod, console otherwise.
func newLogger(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// requestLogger logs one line per request with status and latency.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if id := c.GetInt("user_id"); id != 0 {
			kv = append(kv, "user_id", id)
		}
		if c.Writer.Status() >= 500 {
			log.Warnw("request", kv...)
			return
		}
		log.Infow("request", kv...)
	}
}
