package ytdash

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
)

// ErrMissingColumn is returned when no column can hold the comment text.
var ErrMissingColumn = errors.New("no suitable text column found")

// Column names tried in order when no text column is given.
var textColumnCandidates = []string{"comment_text", "text", "comment", "content", "message"}

// Table is a loaded CSV or JSON file. Columns keep file order.
type Table struct {
	Columns []string
	Rows    []map[string]string
	textual map[string]bool
}

func newTable() *Table {
	return &Table{textual: map[string]bool{}}
}

func (t *Table) addColumn(name string) {
	for _, c := range t.Columns {
		if c == name {
			return
		}
	}
	t.Columns = append(t.Columns, name)
}

func (t *Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadCSV reads a CSV file with a header row. A column counts as text when
// any of its values is not a number.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return newTable(), nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := newTable()
	for _, h := range header {
		t.addColumn(h)
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i >= len(record) {
				break
			}
			row[h] = record[i]
			if record[i] != "" {
				if _, err := strconv.ParseFloat(record[i], 64); err != nil {
					t.textual[h] = true
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadJSON reads an array of objects or an object with a "comments" array.
func ReadJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse JSON: invalid document")
	}
	root := gjson.ParseBytes(data)
	items := root
	if root.IsObject() {
		items = root.Get("comments")
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("failed to parse JSON: expected an array or an object with a comments array")
	}

	t := newTable()
	var rowErr error
	items.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			rowErr = fmt.Errorf("failed to parse JSON: item %d is not an object", len(t.Rows)+1)
			return false
		}
		row := map[string]string{}
		item.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			t.addColumn(name)
			switch value.Type {
			case gjson.Null:
				row[name] = ""
			case gjson.String:
				row[name] = value.String()
				t.textual[name] = true
			default:
				row[name] = value.Raw
			}
			return true
		})
		t.Rows = append(t.Rows, row)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return t, nil
}

// LoadTable reads a .json file as JSON and anything else as CSV.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(data)
	}
	return ReadCSV(bytes.NewReader(data))
}

// DetectTextColumn picks the first well-known text column, or else the first
// column holding text.
func (t *Table) DetectTextColumn() (string, error) {
	for _, name := range textColumnCandidates {
		if t.hasColumn(name) {
			return name, nil
		}
	}
	for _, name := range t.Columns {
		if t.textual[name] {
			return name, nil
		}
	}
	return "", ErrMissingColumn
}

// Texts returns the values of the named column, or of the detected text
// column when name is empty.
func (t *Table) Texts(name string) ([]string, error) {
	if name == "" {
		detected, err := t.DetectTextColumn()
		if err != nil {
			return nil, err
		}
		name = detected
	} else if !t.hasColumn(name) {
		return nil, fmt.Errorf("column %q: %w", name, ErrMissingColumn)
	}
	texts := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		texts[i] = row[name]
	}
	return texts, nil
}

// Comments converts the rows into comment records. Counters default to 0, an
// ai_reply of "null" means no reply and rows without an id get one derived
// from their content.
func (t *Table) Comments() ([]Comment, error) {
	comments := make([]Comment, 0, len(t.Rows))
	for i, row := range t.Rows {
		c, err := commentFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func commentFromRow(row map[string]string) (Comment, error) {
	c := Comment{
		CommentID: row["comment_id"],
		VideoID:   row["video_id"],
		Text:      row["comment_text"],
		Author:    row["author"],
	}
	var err error
	if c.LikeCount, err = parseCount(row, "like_count"); err != nil {
		return Comment{}, err
	}
	if c.ReplyCount, err = parseCount(row, "reply_count"); err != nil {
		return Comment{}, err
	}
	if c.ReplyDepthPotential, err = parseCount(row, "reply_depth_potential"); err != nil {
		return Comment{}, err
	}
	if v := row["engagement_score"]; v != "" {
		if c.EngagementScore, err = strconv.ParseFloat(v, 64); err != nil {
			return Comment{}, fmt.Errorf("invalid engagement_score %q: %w", v, err)
		}
	}
	if v := row["created_at"]; v != "" {
		ts, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return Comment{}, fmt.Errorf("invalid created_at %q: %w", v, err)
		}
		ts = ts.UTC()
		c.CreatedAt = &ts
	}
	if v := row["ai_reply"]; v != "" && v != "null" {
		c.AIReply = &v
	}
	if v := row["embedding"]; v != "" {
		c.Embedding = &v
	}
	if c.CommentID == "" {
		c.CommentID = generatedCommentID(c)
	}
	return c, nil
}

func parseCount(row map[string]string, key string) (int, error) {
	v := strings.TrimSpace(row[key])
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return int(f), nil
}

// generatedCommentID derives a stable id so re-imports update the same row.
func generatedCommentID(c Comment) string {
	stamp := ""
	if c.CreatedAt != nil {
		stamp = c.CreatedAt.Format(time.RFC3339Nano)
	}
	sum := sha256SumHex([]byte(strings.Join([]string{c.VideoID, c.Author, stamp, c.Text}, "\x00")))
	return "gen-" + sum[:16]
}
