package bot

import (
	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/delivery"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/internal/stats"
)

// New creates a new Dispatcher with concurrency control. The stats recorder
// may be nil when usage accounting is disabled.
func New(chatClient chat.Client, controller delivery.Controller, recorder stats.Recorder, log logger.Logger, maxConcurrent int) Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	return &implDispatcher{
		chat:       chatClient,
		controller: controller,
		stats:      recorder,
		logger:     log,
		semaphore:  make(chan struct{}, maxConcurrent),
	}
}
