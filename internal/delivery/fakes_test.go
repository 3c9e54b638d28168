package delivery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nguyentantai21042004/transcript-flow/internal/chat"
	"github.com/nguyentantai21042004/transcript-flow/internal/config"
	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
	"github.com/nguyentantai21042004/transcript-flow/internal/media"
	"github.com/nguyentantai21042004/transcript-flow/internal/store"
	"github.com/nguyentantai21042004/transcript-flow/internal/transcribe"
)

// fakeChat records every outbound call and replays scripted edit errors.
type fakeChat struct {
	mu         sync.Mutex
	nextID     int
	sent       []sentMessage
	edits      []editCall
	documents  []documentCall
	editErrors []error // consumed in order by EditMessageText
}

type sentMessage struct {
	ref  chat.MessageRef
	text string
	kb   *chat.Keyboard
}

type editCall struct {
	ref  chat.MessageRef
	text string
	kb   *chat.Keyboard
}

type documentCall struct {
	chatID   int64
	filename string
	caption  string
}

func newFakeChat() *fakeChat {
	return &fakeChat{nextID: 100}
}

func (f *fakeChat) Updates(ctx context.Context) <-chan chat.Update {
	ch := make(chan chat.Update)
	close(ch)
	return ch
}

func (f *fakeChat) SendMessage(ctx context.Context, chatID int64, text string, kb *chat.Keyboard) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	ref := chat.MessageRef{ChatID: chatID, MessageID: f.nextID}
	f.sent = append(f.sent, sentMessage{ref: ref, text: text, kb: kb})
	return ref, nil
}

func (f *fakeChat) EditMessageText(ctx context.Context, ref chat.MessageRef, text string, kb *chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.editErrors) > 0 {
		err := f.editErrors[0]
		f.editErrors = f.editErrors[1:]
		if err != nil {
			return err
		}
	}
	f.edits = append(f.edits, editCall{ref: ref, text: text, kb: kb})
	return nil
}

func (f *fakeChat) DeleteMessage(ctx context.Context, ref chat.MessageRef) error { return nil }

func (f *fakeChat) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.documents = append(f.documents, documentCall{chatID: chatID, filename: filename, caption: caption})
	f.nextID++
	return chat.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeChat) AnswerCallback(ctx context.Context, callbackID string) error { return nil }

// DownloadFile materializes the fileID as the file content, so identical
// file ids hash identically for the dedup path.
func (f *fakeChat) DownloadFile(ctx context.Context, fileID, destDir string) (string, error) {
	path := filepath.Join(destDir, "media.oga")
	if err := os.WriteFile(path, []byte(fileID), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeChat) lastEdit() editCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edits[len(f.edits)-1]
}

func (f *fakeChat) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

// fakeExtractor passes the downloaded file through as the waveform.
type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) Extract(ctx context.Context, in media.Input) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return in.Path, nil
}

// fakeEngine yields canned segments and counts invocations.
type fakeEngine struct {
	mu       sync.Mutex
	segments []transcribe.Segment
	err      error
	calls    int
}

func (f *fakeEngine) Transcribe(ctx context.Context, wavPath string) ([]transcribe.Segment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSummarizer returns a scripted result.
type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// spyStore counts writes on top of a real memory store.
type spyStore struct {
	store.Store
	mu   sync.Mutex
	puts int
}

func newSpyStore() *spyStore {
	return &spyStore{Store: store.NewMemory()}
}

func (s *spyStore) Put(ctx context.Context, id string, rec store.Record, ttl time.Duration) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.Store.Put(ctx, id, rec, ttl)
}

func (s *spyStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func testConfig(t interface{ TempDir() string }) *config.Config {
	return &config.Config{
		Paths: config.PathsConfig{Temp: t.TempDir()},
		Delivery: config.DeliveryConfig{
			MessageLimit:    4096,
			PageMargin:      6,
			TTLHours:        24,
			MinSummaryWords: 40,
		},
	}
}

type controllerDeps struct {
	chat       *fakeChat
	extractor  *fakeExtractor
	engine     *fakeEngine
	summarizer *fakeSummarizer
	store      *spyStore
	sleeps     *[]time.Duration
}

func newTestController(t interface{ TempDir() string }, deps *controllerDeps) *implController {
	if deps.chat == nil {
		deps.chat = newFakeChat()
	}
	if deps.extractor == nil {
		deps.extractor = &fakeExtractor{}
	}
	if deps.engine == nil {
		deps.engine = &fakeEngine{}
	}
	if deps.summarizer == nil {
		deps.summarizer = &fakeSummarizer{}
	}
	if deps.store == nil {
		deps.store = newSpyStore()
	}

	c := New(testConfig(t), deps.chat, deps.extractor, deps.engine, deps.summarizer, deps.store, nil, logger.New("error")).(*implController)

	var sleeps []time.Duration
	deps.sleeps = &sleeps
	c.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return c
}

func voiceMessage(fileID string) *chat.Message {
	return &chat.Message{
		ChatID:    42,
		MessageID: 1,
		From:      chat.User{ID: 9, Username: "tester"},
		Voice:     &chat.Attachment{FileID: fileID, Duration: 30 * time.Second},
	}
}
