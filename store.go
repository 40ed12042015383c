package ytdash

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Comment is a stored YouTube comment. Analysis never modifies it.
type Comment struct {
	CommentID           string     `db:"comment_id" json:"comment_id"`
	VideoID             string     `db:"video_id" json:"video_id"`
	Text                string     `db:"comment_text" json:"comment_text"`
	Author              string     `db:"author" json:"author"`
	LikeCount           int        `db:"like_count" json:"like_count"`
	ReplyCount          int        `db:"reply_count" json:"reply_count"`
	CreatedAt           *time.Time `db:"created_at" json:"created_at,omitempty"`
	ReplyDepthPotential int        `db:"reply_depth_potential" json:"reply_depth_potential"`
	EngagementScore     float64    `db:"engagement_score" json:"engagement_score"`
	AIReply             *string    `db:"ai_reply" json:"ai_reply,omitempty"`
	Embedding           *string    `db:"embedding" json:"embedding,omitempty"`
}

// Video is the metadata of a video whose comments were fetched.
type Video struct {
	VideoID         string     `db:"video_id" json:"video_id"`
	Title           string     `db:"title" json:"title"`
	ChannelID       string     `db:"channel_id" json:"channel_id"`
	ChannelTitle    string     `db:"channel_title" json:"channel_title"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`
}

var ErrNoComments = errors.New("no comments stored")

// The schema sticks to types both sqlite and Postgres understand.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS comments (
		comment_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL DEFAULT '',
		comment_text TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		like_count INTEGER NOT NULL DEFAULT 0,
		reply_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NULL,
		reply_depth_potential INTEGER NOT NULL DEFAULT 0,
		engagement_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		ai_reply TEXT NULL,
		embedding TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_video_id ON comments(video_id)`,
	`CREATE TABLE IF NOT EXISTS videos (
		video_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		channel_id TEXT NOT NULL DEFAULT '',
		channel_title TEXT NOT NULL DEFAULT '',
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		published_at TIMESTAMP NULL
	)`,
}

const commentColumns = `comment_id, video_id, comment_text, author, like_count, reply_count,
	created_at, reply_depth_potential, engagement_score, ai_reply, embedding`

// Newest first; comments without a timestamp go last on every driver.
const commentOrder = `ORDER BY created_at IS NULL, created_at DESC, comment_id`

// Store keeps comments and videos in sqlite or Postgres.
type Store struct {
	log *slog.Logger
	db  *sqlx.DB
}

// OpenStore connects to the database and creates the schema when missing.
// driver is "sqlite3" or "pgx".
func OpenStore(ctx context.Context, log *slog.Logger, driver, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		log.Error("connection problem", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		// sqlite serializes writers anyway; one connection avoids "database is locked".
		db.SetMaxOpenConns(1)
	}

	s := &Store{log: log, db: db}
	if err := s.migrate(ctx); err != nil {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertComments inserts comments or refreshes existing ones by comment_id.
// A stored AI reply survives a re-import that carries none.
func (s *Store) UpsertComments(ctx context.Context, comments []Comment) (int, error) {
	const q = `
	INSERT INTO comments (` + commentColumns + `)
	VALUES (:comment_id, :video_id, :comment_text, :author, :like_count, :reply_count,
		:created_at, :reply_depth_potential, :engagement_score, :ai_reply, :embedding)
	ON CONFLICT (comment_id) DO UPDATE SET
		video_id = excluded.video_id,
		comment_text = excluded.comment_text,
		author = excluded.author,
		like_count = excluded.like_count,
		reply_count = excluded.reply_count,
		created_at = excluded.created_at,
		reply_depth_potential = excluded.reply_depth_potential,
		engagement_score = excluded.engagement_score,
		ai_reply = COALESCE(excluded.ai_reply, comments.ai_reply),
		embedding = COALESCE(excluded.embedding, comments.embedding)
	`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	for i, c := range comments {
		if _, err := tx.NamedExecContext(ctx, q, c); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error("rollback failed", "error", rbErr)
			}
			return 0, fmt.Errorf("failed to upsert comment %d (%s): %w", i, c.CommentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit comments: %w", err)
	}
	return len(comments), nil
}

// ListComments returns a page of comments, newest first.
func (s *Store) ListComments(ctx context.Context, limit, offset int) ([]Comment, error) {
	q := s.db.Rebind(`SELECT ` + commentColumns + ` FROM comments ` + commentOrder + ` LIMIT ? OFFSET ?`)
	var comments []Comment
	if err := s.db.SelectContext(ctx, &comments, q, limit, offset); err != nil {
		s.log.Error("list comments failed", "limit", limit, "offset", offset, "error", err)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// RecentComments returns up to limit newest comments.
func (s *Store) RecentComments(ctx context.Context, limit int) ([]Comment, error) {
	return s.ListComments(ctx, limit, 0)
}

// CommentsWithoutReply returns comments that have no AI reply yet.
func (s *Store) CommentsWithoutReply(ctx context.Context, limit int) ([]Comment, error) {
	q := s.db.Rebind(`SELECT ` + commentColumns + ` FROM comments
		WHERE ai_reply IS NULL AND comment_text <> '' ` + commentOrder + ` LIMIT ?`)
	var comments []Comment
	if err := s.db.SelectContext(ctx, &comments, q, limit); err != nil {
		return nil, fmt.Errorf("failed to list comments without reply: %w", err)
	}
	return comments, nil
}

func (s *Store) SetAIReply(ctx context.Context, commentID, reply string) error {
	q := s.db.Rebind(`UPDATE comments SET ai_reply = ? WHERE comment_id = ?`)
	res, err := s.db.ExecContext(ctx, q, reply, commentID)
	if err != nil {
		return fmt.Errorf("failed to store reply for %s: %w", commentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("comment %s not found", commentID)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM comments`); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

// LatestCreatedAt returns the newest comment timestamp. ok is false when no
// comment carries one.
func (s *Store) LatestCreatedAt(ctx context.Context) (latest time.Time, ok bool, err error) {
	// MAX() loses the column type on sqlite, so the row is selected instead.
	const q = `SELECT created_at FROM comments WHERE created_at IS NOT NULL ORDER BY created_at DESC LIMIT 1`
	var t sql.NullTime
	if err := s.db.GetContext(ctx, &t, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read latest timestamp: %w", err)
	}
	return t.Time, t.Valid, nil
}

// Fingerprint identifies the current state of the comment table by count and
// newest timestamp. It changes whenever comments are added.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return "", err
	}
	latest, ok, err := s.LatestCreatedAt(ctx)
	if err != nil {
		return "", err
	}
	return fingerprint(count, latest, ok), nil
}

func fingerprint(count int, latest time.Time, ok bool) string {
	stamp := "none"
	if ok {
		stamp = latest.UTC().Format(time.RFC3339Nano)
	}
	return sha256SumHex([]byte(fmt.Sprintf("%d|%s", count, stamp)))
}

// sha256SumHex returns the lowercase hex SHA-256 of b.
func sha256SumHex(b []byte) string {
	h := sha256.New()
	_, _ = h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (s *Store) UpsertVideo(ctx context.Context, v Video) error {
	const q = `
	INSERT INTO videos (video_id, title, channel_id, channel_title, duration_seconds, published_at)
	VALUES (:video_id, :title, :channel_id, :channel_title, :duration_seconds, :published_at)
	ON CONFLICT (video_id) DO UPDATE SET
		title = excluded.title,
		channel_id = excluded.channel_id,
		channel_title = excluded.channel_title,
		duration_seconds = excluded.duration_seconds,
		published_at = excluded.published_at
	`
	if _, err := s.db.NamedExecContext(ctx, q, v); err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", v.VideoID, err)
	}
	return nil
}

func (s *Store) Video(ctx context.Context, id string) (Video, error) {
	q := s.db.Rebind(`SELECT video_id, title, channel_id, channel_title, duration_seconds, published_at
		FROM videos WHERE video_id = ?`)
	var v Video
	if err := s.db.GetContext(ctx, &v, q, id); err != nil {
		return Video{}, fmt.Errorf("failed to read video %s: %w", id, err)
	}
	return v, nil
}

// openConfiguredStore opens the store named by Config.
func openConfiguredStore(ctx context.Context) (*Store, error) {
	return OpenStore(ctx, Logger, Config.DBDriver, Config.DBDSN)
}
