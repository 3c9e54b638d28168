package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type implRecorder struct {
	db *sql.DB
}

const schema = `
create table if not exists usage (
	user_id        integer not null,
	chat_id        integer not null,
	username       text not null default '',
	transcriptions integer not null default 0,
	summaries      integer not null default 0,
	speech_seconds integer not null default 0,
	last_activity  integer not null default 0,
	primary key (user_id, chat_id)
);
`

// NewSQLite opens (and migrates) the usage database at path
func NewSQLite(path string) (Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate stats db: %w", err)
	}

	return &implRecorder{db: db}, nil
}

func (r *implRecorder) RecordTranscription(ctx context.Context, userID int64, username string, chatID int64, speechSeconds int) error {
	_, err := r.db.ExecContext(ctx, `
		insert into usage (user_id, chat_id, username, transcriptions, speech_seconds, last_activity)
		values ($1, $2, $3, 1, $4, $5)
		on conflict (user_id, chat_id) do update set
			username       = $3,
			transcriptions = transcriptions + 1,
			speech_seconds = speech_seconds + $4,
			last_activity  = $5
	`, userID, chatID, username, speechSeconds, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record transcription: %w", err)
	}
	return nil
}

func (r *implRecorder) RecordSummary(ctx context.Context, userID int64, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		update usage set summaries = summaries + 1, last_activity = $3
		where user_id = $1 and chat_id = $2
	`, userID, chatID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	return nil
}

// Report renders the usage leaderboard for one chat, longest total speech
// time first.
func (r *implRecorder) Report(ctx context.Context, chatID int64) (string, error) {
	rows, err := r.db.QueryContext(ctx, `
		select username, transcriptions, summaries, speech_seconds
		from usage where chat_id = $1
		order by speech_seconds desc
	`, chatID)
	if err != nil {
		return "", fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var username string
		var transcriptions, summaries, seconds int
		if err := rows.Scan(&username, &transcriptions, &summaries, &seconds); err != nil {
			return "", fmt.Errorf("scan usage row: %w", err)
		}
		fmt.Fprintf(&b, "@%s: %s of speech, %d transcriptions, %d summaries\n",
			username, formatDuration(seconds), transcriptions, summaries)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate usage rows: %w", err)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no usage recorded for chat %d", chatID)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%ds", seconds)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), seconds%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
