package delivery

import (
	"sync/atomic"
	"time"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/config"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/internal/media"
	"github.com/nguyentantai21042004/transcript-flow/internal/stats"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/summarize"
	"github.com/nguyentantai21042004/transcript-flow/internal/transcribe"
)

type implController struct {
	chat       chat.Client
	extractor  media.Extractor
	engine     transcribe.Engine
	summarizer summarize.Summarizer
	store      store.Store
	stats      stats.Recorder // optional
	logger     logger.Logger

	cfg   atomic.Pointer[config.Config]
	sleep func(time.Duration)
}

// New creates a new Controller instance. The stats recorder may be nil when
// usage accounting is disabled.
func New(
	cfg *config.Config,
	chatClient chat.Client,
	extractor media.Extractor,
	engine transcribe.Engine,
	summarizer summarize.Summarizer,
	st store.Store,
	recorder stats.Recorder,
	log logger.Logger,
) Controller {
	c := &implController{
		chat:       chatClient,
		extractor:  extractor,
		engine:     engine,
		summarizer: summarizer,
		store:      st,
		stats:      recorder,
		logger:     log,
		sleep:      time.Sleep,
	}
	c.cfg.Store(cfg)
	return c
}

func (c *implController) UpdateConfig(cfg *config.Config) {
	c.cfg.Store(cfg)
}

func (c *implController) config() *config.Config {
	return c.cfg.Load()
}

func (c *implController) ttl() time.Duration {
	return time.Duration(c.config().Delivery.TTLHours) * time.Hour
}
