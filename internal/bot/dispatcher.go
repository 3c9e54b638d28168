package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/delivery"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/internal/stats"
)

const (
	startText = "Hi! This bot converts voice and video messages into text.\n\n" +
		"Send or forward any voice message here and you will receive the transcription, " +
		"with buttons to page through long texts and to generate a summary.\n\n" +
		"You can also add the bot to a group so it transcribes the audio sent there."
	helpText = "Forward any voice or video-note message to get its transcription. " +
		"Processing time is proportional to the duration of the audio.\n\n" +
		"Long transcripts are split into pages you can navigate with the buttons. " +
		"The Summarize button condenses the transcript; Export sends it as a document.\n\n" +
		"Commands:\n/start - introduction\n/help - this message\n/stats - usage statistics for this chat"
	statsEmptyText = "No usage recorded for this chat yet."
)

type implDispatcher struct {
	chat       chat.Client
	controller delivery.Controller
	stats      stats.Recorder
	logger     logger.Logger
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// Run consumes updates until ctx is cancelled, processing each one on its
// own goroutine gated by the concurrency semaphore, then drains in-flight
// work before returning.
func (d *implDispatcher) Run(ctx context.Context) error {
	d.logger.Info(ctx, "Dispatcher started (max concurrent: %d)", cap(d.semaphore))

	updates := d.chat.Updates(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx)
			return ctx.Err()

		case upd, ok := <-updates:
			if !ok {
				d.drain(ctx)
				return nil
			}
			if err := d.dispatch(ctx, upd); err != nil {
				return err
			}
		}
	}
}

func (d *implDispatcher) dispatch(ctx context.Context, upd chat.Update) error {
	handler := d.handlerFor(upd)
	if handler == nil {
		return nil
	}

	select {
	case d.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.semaphore }()

		if err := handler(ctx); err != nil {
			d.logger.Error(ctx, "Update handling failed: %v", err)
		}
	}()

	return nil
}

func (d *implDispatcher) handlerFor(upd chat.Update) func(context.Context) error {
	switch {
	case upd.Callback != nil:
		cb := upd.Callback
		return func(ctx context.Context) error {
			err := d.controller.HandleCallback(ctx, cb)
			if errors.Is(err, delivery.ErrRecordExpired) {
				// Already rendered to the user; nothing actionable remains
				d.logger.Debug(ctx, "Callback on expired record from @%s", cb.From.Username)
				return nil
			}
			return err
		}

	case upd.Message != nil && (upd.Message.Voice != nil || upd.Message.VideoNote != nil):
		msg := upd.Message
		return func(ctx context.Context) error {
			return d.controller.HandleTranscription(ctx, msg)
		}

	case upd.Message != nil && strings.HasPrefix(upd.Message.Text, "/"):
		msg := upd.Message
		return func(ctx context.Context) error {
			return d.handleCommand(ctx, msg)
		}

	default:
		return nil
	}
}

func (d *implDispatcher) handleCommand(ctx context.Context, msg *chat.Message) error {
	command := strings.ToLower(strings.Fields(msg.Text)[0])
	// Strip the bot-mention suffix used in groups (/help@somebot)
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}

	d.logger.Info(ctx, "@%s: %s", msg.From.Username, command)

	switch command {
	case "/start":
		_, err := d.chat.SendMessage(ctx, msg.ChatID, startText, nil)
		return err
	case "/help":
		_, err := d.chat.SendMessage(ctx, msg.ChatID, helpText, nil)
		return err
	case "/stats":
		return d.handleStats(ctx, msg)
	default:
		d.logger.Debug(ctx, "Ignoring unknown command %s", command)
		return nil
	}
}

func (d *implDispatcher) handleStats(ctx context.Context, msg *chat.Message) error {
	if d.stats == nil {
		_, err := d.chat.SendMessage(ctx, msg.ChatID, statsEmptyText, nil)
		return err
	}

	report, err := d.stats.Report(ctx, msg.ChatID)
	if err != nil {
		d.logger.Warn(ctx, "Stats report failed: %v", err)
		report = statsEmptyText
	}

	_, err = d.chat.SendMessage(ctx, msg.ChatID, report, nil)
	return err
}

func (d *implDispatcher) drain(ctx context.Context) {
	d.logger.Info(ctx, "Waiting for in-flight updates to finish...")
	d.wg.Wait()
	d.logger.Info(ctx, "Dispatcher stopped")
}
