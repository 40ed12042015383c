package ytdash

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

//go:embed templates/dashboard.html
var dashboardTemplate string

const (
	defaultPageLimit = 30
	maxUploadBytes   = 32 << 20
)

var pageLimitOptions = []int{10, 30, 50}

// CommentSource is the store as seen by the dashboard.
type CommentSource interface {
	ListComments(ctx context.Context, limit, offset int) ([]Comment, error)
	RecentComments(ctx context.Context, limit int) ([]Comment, error)
	Count(ctx context.Context) (int, error)
	Fingerprint(ctx context.Context) (string, error)
	UpsertComments(ctx context.Context, comments []Comment) (int, error)
	Ping(ctx context.Context) error
}

// Server serves the dashboard page and its JSON API.
type Server struct {
	log        *slog.Logger
	source     CommentSource
	cache      *AnalysisCache
	notifier   Notifier
	opts       Options
	graphLimit int
	timeout    time.Duration
	group      singleflight.Group
	page       *template.Template
}

type ServerConfig struct {
	GraphLimit int
	Timeout    time.Duration
	Analysis   Options
}

func NewServer(log *slog.Logger, source CommentSource, cache *AnalysisCache, notifier Notifier, cfg ServerConfig) (*Server, error) {
	page, err := template.New("dashboard").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"dec": func(i int) int { return i - 1 },
	}).Parse(dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cfg.Analysis.Log == nil {
		cfg.Analysis.Log = log
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Server{
		log:        log,
		source:     source,
		cache:      cache,
		notifier:   notifier,
		opts:       cfg.Analysis.withDefaults(),
		graphLimit: cfg.GraphLimit,
		timeout:    cfg.Timeout,
		page:       page,
	}, nil
}

// Routes returns the rate-limited handler for all endpoints.
func (s *Server) Routes(rps int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("GET /api/comments", s.handleComments)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/clusters", s.handleClusters)
	mux.HandleFunc("POST /api/import/csv", s.handleImport(formatCSV))
	mux.HandleFunc("POST /api/import/json", s.handleImport(formatJSON))
	return WithRequestLog(s.log, WithRateLimit(mux, rps))
}

// Dashboard returns the dashboard for the current comment table, computing
// it at most once per fingerprint while cached.
func (s *Server) Dashboard(ctx context.Context) (*Dashboard, error) {
	fp, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	if d, ok := s.cache.Dashboard(fp); ok {
		return d, nil
	}

	// The shared computation outlives any single caller's request.
	v, err, _ := s.group.Do(fp, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		comments, err := s.source.RecentComments(ctx, s.graphLimit)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		d := BuildDashboard(comments, s.opts)
		s.cache.SetDashboard(fp, d)
		s.log.Info("dashboard computed", "comments", len(comments), "clustered", d.Clusters != nil, "duration", time.Since(start))
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dashboard), nil
}

// Warm computes and caches the dashboard for the current data.
func (s *Server) Warm(ctx context.Context) error {
	_, err := s.Dashboard(ctx)
	return err
}

type commentPage struct {
	Comments     []Comment `json:"comments"`
	Page         int       `json:"page"`
	NumPages     int       `json:"num_pages"`
	Limit        int       `json:"limit"`
	LimitOptions []int     `json:"limit_options"`
	Total        int       `json:"total"`
	HasNext      bool      `json:"has_next"`
	HasPrevious  bool      `json:"has_previous"`
}

// parseLimit accepts only the offered page sizes.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultPageLimit
	}
	for _, opt := range pageLimitOptions {
		if limit == opt {
			return limit
		}
	}
	return defaultPageLimit
}

// parsePage returns a page number within [1, numPages]. Invalid input gives
// the first page and out-of-range numbers the last.
func parsePage(raw string, numPages int) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return min(page, numPages)
}

func (s *Server) loadPage(ctx context.Context, r *http.Request) (commentPage, error) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	total, err := s.source.Count(ctx)
	if err != nil {
		return commentPage{}, err
	}
	numPages := max(1, (total+limit-1)/limit)
	page := parsePage(r.URL.Query().Get("page"), numPages)

	comments, err := s.source.ListComments(ctx, limit, (page-1)*limit)
	if err != nil {
		return commentPage{}, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return commentPage{
		Comments:     comments,
		Page:         page,
		NumPages:     numPages,
		Limit:        limit,
		LimitOptions: pageLimitOptions,
		Total:        total,
		HasNext:      page < numPages,
		HasPrevious:  page > 1,
	}, nil
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	replies := map[string]string{"store": "ok"}
	if err := s.source.Ping(ctx); err != nil {
		replies["store"] = "unavailable"
		s.log.Warn("ping failed", "service", "store", "error", err)
	}
	writeJSON(w, map[string]any{"replies": replies}, http.StatusOK)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	page, err := s.loadPage(ctx, r)
	if err != nil {
		s.log.Error("list comments failed", "error", err)
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
		return
	}
	writeJSON(w, page, http.StatusOK)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	d, err := s.Dashboard(ctx)
	if err != nil {
		s.log.Error("dashboard failed", "error", err)
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	d, err := s.Dashboard(ctx)
	if err != nil {
		s.log.Error("clusters failed", "error", err)
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
		return
	}
	if d.Clusters == nil {
		writeJSON(w, errorResponse{Error: "not enough data"}, http.StatusNotFound)
		return
	}
	writeJSON(w, d.Clusters, http.StatusOK)
}

type importFormat int

const (
	formatCSV importFormat = iota
	formatJSON
)

// uploadFields are the multipart fields accepted for the uploaded file.
var uploadFields = map[importFormat][]string{
	formatCSV:  {"file", "csv_file"},
	formatJSON: {"file", "json_file"},
}

func (s *Server) handleImport(format importFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, errorResponse{Error: "expected a multipart form with a file"}, http.StatusBadRequest)
			return
		}
		var data []byte
		for _, field := range uploadFields[format] {
			file, _, err := r.FormFile(field)
			if err != nil {
				continue
			}
			var buf bytes.Buffer
			_, err = buf.ReadFrom(file)
			file.Close()
			if err != nil {
				writeJSON(w, errorResponse{Error: "failed to read upload"}, http.StatusBadRequest)
				return
			}
			data = buf.Bytes()
			break
		}
		if data == nil {
			writeJSON(w, errorResponse{Error: "file is required"}, http.StatusBadRequest)
			return
		}

		var table *Table
		var err error
		if format == formatJSON {
			table, err = ReadJSON(data)
		} else {
			table, err = ReadCSV(bytes.NewReader(data))
		}
		if err != nil {
			writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
			return
		}

		comments, err := table.Comments()
		if err != nil {
			writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
			return
		}
		n, err := s.source.UpsertComments(ctx, comments)
		if err != nil {
			s.log.Error("import failed", "error", err)
			writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
			return
		}
		if n > 0 {
			s.notifier.NotifyCommentsUpdated(ctx, n)
		}
		s.log.Info("imported comments", "comments", n)
		writeJSON(w, map[string]int{"imported": n}, http.StatusOK)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	page, err := s.loadPage(ctx, r)
	if err != nil {
		s.log.Error("list comments failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	d, err := s.Dashboard(ctx)
	if err != nil {
		s.log.Error("dashboard failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	graphJSON, err := json.Marshal(d.Graph)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	clusterJSON, err := json.Marshal(d.Clusters)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := struct {
		CSS         template.CSS
		Dashboard   *Dashboard
		Page        commentPage
		GraphJSON   template.JS
		ClusterJSON template.JS
	}{
		CSS:         template.CSS(cssStyles),
		Dashboard:   d,
		Page:        page,
		GraphJSON:   template.JS(graphJSON),
		ClusterJSON: template.JS(clusterJSON),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, view); err != nil {
		s.log.Error("failed to execute template", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Error("write page failed", "error", err)
	}
}
