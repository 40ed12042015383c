package ytdash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"github.com/spf13/cobra"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

var fetchMax int

// FetchCommentsCmd: downloads the comment threads of a video into the store
var FetchCommentsCmd = &cobra.Command{
	Use:   "fetch-comments <video-id>",
	Short: "Fetch comments of a YouTube video into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSetting(Config.YouTubeAPIKey, "YOUTUBE_API_KEY"); err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				Logger.Error("failed to close database", "error", err)
			}
		}()

		notifier := NewNotifier(Logger, Config.Broker)
		defer notifier.Close()

		client := newYouTubeClient(Config.YouTubeAPIKey, Config.HTTPTimeout)
		n, err := fetchVideoComments(ctx, client, store, notifier, args[0], fetchMax)
		if err != nil {
			return err
		}
		Logger.Info("fetch complete", "video_id", args[0], "comments", n)
		return nil
	},
}

func init() {
	FetchCommentsCmd.Flags().IntVar(&fetchMax, "max", 500, "maximum number of comment threads to fetch")
}

// youtubeClient calls the YouTube Data API v3.
type youtubeClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newYouTubeClient(apiKey string, timeout time.Duration) *youtubeClient {
	return &youtubeClient{
		apiKey:     apiKey,
		baseURL:    youtubeAPIBase,
		http:       &http.Client{Timeout: timeout},
		maxRetries: 5,
		baseDelay:  2 * time.Second,
		maxDelay:   60 * time.Second,
	}
}

// parseRetryAfter parses the Retry-After header value and returns duration
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		return time.Until(retryTime)
	}
	return 0
}

// rateLimited reports whether a response asks the caller to slow down.
// Daily quota errors are final and are not retried.
func rateLimited(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status == http.StatusForbidden &&
		(strings.Contains(string(body), "rateLimitExceeded") || strings.Contains(string(body), "userRateLimitExceeded"))
}

// getJSON performs a GET request and decodes the JSON body into out, retrying
// rate-limited responses.
func (c *youtubeClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("key", c.apiKey)
	endpoint := c.baseURL + "/" + path + "?" + query.Encode()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call YouTube API: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if rateLimited(resp.StatusCode, body) {
			if attempt == c.maxRetries {
				return fmt.Errorf("YouTube API rate limit exceeded after %d retries (status %d): %s", c.maxRetries, resp.StatusCode, string(body))
			}
			retryAfter := resp.Header.Get("Retry-After")
			delay := parseRetryAfter(retryAfter)
			if delay <= 0 {
				delay = c.baseDelay * time.Duration(1<<attempt)
			}
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			Logger.Warn("rate limit hit, retrying", "path", path, "attempt", attempt+1, "delay", delay, "retry_after", retryAfter)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("YouTube API error (status %d): %s", resp.StatusCode, string(body))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode YouTube API response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unexpected error in retry loop")
}

func (c *youtubeClient) fetchVideo(ctx context.Context, videoID string) (Video, error) {
	var result struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelID    string `json:"channelId"`
				ChannelTitle string `json:"channelTitle"`
				PublishedAt  string `json:"publishedAt"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	q := url.Values{"id": {videoID}, "part": {"snippet,contentDetails"}}
	if err := c.getJSON(ctx, "videos", q, &result); err != nil {
		return Video{}, fmt.Errorf("failed to fetch video %s: %w", videoID, err)
	}
	if len(result.Items) == 0 {
		return Video{}, fmt.Errorf("video %s not found", videoID)
	}

	item := result.Items[0]
	v := Video{
		VideoID:      item.ID,
		Title:        item.Snippet.Title,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
	}
	if item.ContentDetails.Duration != "" {
		if dur, err := duration.Parse(item.ContentDetails.Duration); err == nil {
			v.DurationSeconds = int(dur.ToTimeDuration().Seconds())
		}
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		v.PublishedAt = &t
	}
	return v, nil
}

// fetchCommentThreads pages through the top-level comments of a video, newest
// first, until limit threads were collected or the pages run out.
func (c *youtubeClient) fetchCommentThreads(ctx context.Context, videoID string, limit int) ([]Comment, error) {
	type threadPage struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			Snippet struct {
				TotalReplyCount int `json:"totalReplyCount"`
				TopLevelComment struct {
					ID      string `json:"id"`
					Snippet struct {
						VideoID           string `json:"videoId"`
						TextOriginal      string `json:"textOriginal"`
						TextDisplay       string `json:"textDisplay"`
						AuthorDisplayName string `json:"authorDisplayName"`
						LikeCount         int    `json:"likeCount"`
						PublishedAt       string `json:"publishedAt"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}

	var comments []Comment
	token := ""
	for len(comments) < limit {
		q := url.Values{
			"videoId":    {videoID},
			"part":       {"snippet"},
			"maxResults": {"100"},
			"order":      {"time"},
			"textFormat": {"plainText"},
		}
		if token != "" {
			q.Set("pageToken", token)
		}
		var page threadPage
		if err := c.getJSON(ctx, "commentThreads", q, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch comments of %s: %w", videoID, err)
		}
		for _, item := range page.Items {
			top := item.Snippet.TopLevelComment
			text := top.Snippet.TextOriginal
			if text == "" {
				text = top.Snippet.TextDisplay
			}
			comment := Comment{
				CommentID:  top.ID,
				VideoID:    videoID,
				Text:       text,
				Author:     top.Snippet.AuthorDisplayName,
				LikeCount:  top.Snippet.LikeCount,
				ReplyCount: item.Snippet.TotalReplyCount,
			}
			if t, err := time.Parse(time.RFC3339, top.Snippet.PublishedAt); err == nil {
				t = t.UTC()
				comment.CreatedAt = &t
			}
			comments = append(comments, comment)
			if len(comments) == limit {
				break
			}
		}
		Logger.Debug("fetched comment page", "video_id", videoID, "items", len(page.Items), "total", len(comments))
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	return comments, nil
}

// fetchVideoComments stores the video metadata and its comments and announces
// the update. It returns the number of stored comments.
func fetchVideoComments(ctx context.Context, client *youtubeClient, store *Store, notifier Notifier, videoID string, limit int) (int, error) {
	video, err := client.fetchVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}
	if err := store.UpsertVideo(ctx, video); err != nil {
		return 0, err
	}
	Logger.Info("fetched video", "video_id", video.VideoID, "title", video.Title, "duration_seconds", video.DurationSeconds)

	comments, err := client.fetchCommentThreads(ctx, videoID, limit)
	if err != nil {
		return 0, err
	}
	n, err := store.UpsertComments(ctx, comments)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		notifier.NotifyCommentsUpdated(ctx, n)
	}
	return n, nil
}
