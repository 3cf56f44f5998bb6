package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/config"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/logging"
)

// session is the state every subcommand starts from.
type session struct {
	cfg    config.Config
	log    *zap.Logger
	buf    *memory.Buffer
	cursor editor.Position
}

func (o *options) open(path string) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	buf := memory.NewBuffer(1, string(data), memory.WithName(path))

	cursor, err := editor.ClampPosition(buf, editor.Position{Line: o.line - 1, Col: o.col - 1})
	if err != nil {
		return nil, err
	}
	if err := buf.SetCursor(cursor); err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, buf: buf, cursor: cursor}, nil
}

func (s *session) close() {
	_ = s.log.Sync()
}
