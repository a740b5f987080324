package cmd

import (
	"github.com/brogergvhs/panelfetch/internal/antiscrape"
	"github.com/brogergvhs/panelfetch/internal/config"
	"github.com/brogergvhs/panelfetch/internal/extract"
	"github.com/brogergvhs/panelfetch/internal/imgrequest"
	"github.com/brogergvhs/panelfetch/internal/ui"
	"github.com/brogergvhs/panelfetch/internal/urlnorm"
	"github.com/brogergvhs/panelfetch/internal/util"
)

// pipeline holds everything built from the merged config.
type pipeline struct {
	cfg       *config.Config
	source    string
	log       *ui.Logger
	norm      *urlnorm.Normalizer
	extractor *extract.Extractor
	builder   *imgrequest.Builder
}

func baseOptions() config.Options {
	return config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		ServerURL:    flagServer,
		ServerKind:   flagServerKind,
		AccessToken:  flagToken,
		UserAgent:    flagUserAgent,

		SameOriginAuth: flagSameOriginAuth,
	}
}

func newPipeline(opts config.Options) (*pipeline, error) {
	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log := ui.NewLogger(cfg.Debug)
	log.Debugf("config: %s\n", used)

	norm := urlnorm.New(cfg.Rules())
	bopts := []imgrequest.Option{
		imgrequest.WithUserAgent(util.PickUserAgent(cfg.UserAgent)),
		imgrequest.WithServerResolver(imgrequest.PathResolver{
			Kind: imgrequest.ParseBackendKind(cfg.ServerKind),
		}),
	}
	if cfg.SameOriginAuth {
		bopts = append(bopts, imgrequest.WithSameOriginAuth())
	}
	builder := imgrequest.NewBuilder(norm, antiscrape.Default(), bopts...)

	return &pipeline{
		cfg:       cfg,
		source:    used,
		log:       log,
		norm:      norm,
		extractor: extract.New(norm),
		builder:   builder,
	}, nil
}
