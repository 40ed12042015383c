package ytdash

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeffid,likes,body\n1,3,hello\n2,5,\"with, comma\"\n"
	table, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if want := []string{"id", "likes", "body"}; !reflect.DeepEqual(table.Columns, want) {
		t.Fatalf("Columns = %q; want %q", table.Columns, want)
	}
	column, err := table.DetectTextColumn()
	if err != nil {
		t.Fatalf("DetectTextColumn: %v", err)
	}
	if column != "body" {
		t.Errorf("DetectTextColumn = %q; want body", column)
	}
	texts, err := table.Texts("")
	if err != nil {
		t.Fatalf("Texts: %v", err)
	}
	if want := []string{"hello", "with, comma"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("Texts = %q; want %q", texts, want)
	}
}

func TestDetectTextColumnPrefersKnownNames(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("author,comment_text\nalice,hi\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if column, err := table.DetectTextColumn(); err != nil || column != "comment_text" {
		t.Errorf("DetectTextColumn = %q, %v; want comment_text", column, err)
	}
}

func TestMissingTextColumn(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b\n1,2\n3,4.5\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if _, err := table.Texts(""); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Texts(\"\") error = %v; want ErrMissingColumn", err)
	}
	if _, err := table.Texts("nope"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Texts(nope) error = %v; want ErrMissingColumn", err)
	}
	if texts, err := table.Texts("a"); err != nil || !reflect.DeepEqual(texts, []string{"1", "3"}) {
		t.Errorf("Texts(a) = %q, %v", texts, err)
	}
}

func TestReadJSON(t *testing.T) {
	cases := []string{
		`[{"comment_text": "hi", "like_count": 2, "ai_reply": null}, {"comment_text": "yo"}]`,
		`{"comments": [{"comment_text": "hi", "like_count": 2, "ai_reply": null}, {"comment_text": "yo"}]}`,
	}
	for _, in := range cases {
		table, err := ReadJSON([]byte(in))
		if err != nil {
			t.Fatalf("ReadJSON(%s): %v", in, err)
		}
		if len(table.Rows) != 2 {
			t.Fatalf("rows = %d; want 2", len(table.Rows))
		}
		if got := table.Rows[0]["like_count"]; got != "2" {
			t.Errorf("like_count = %q; want 2", got)
		}
		if got := table.Rows[0]["ai_reply"]; got != "" {
			t.Errorf("null ai_reply = %q; want empty", got)
		}
		texts, err := table.Texts("")
		if err != nil {
			t.Fatalf("Texts: %v", err)
		}
		if !reflect.DeepEqual(texts, []string{"hi", "yo"}) {
			t.Errorf("Texts = %q", texts)
		}
	}
}

func TestReadJSONErrors(t *testing.T) {
	for _, in := range []string{`{`, `"text"`, `{"items": []}`, `[{"a": 1}, 2]`} {
		if _, err := ReadJSON([]byte(in)); err == nil {
			t.Errorf("ReadJSON(%s) expected error", in)
		}
	}
}

func TestTableComments(t *testing.T) {
	in := "comment_id,video_id,comment_text,author,like_count,reply_count,created_at,ai_reply\n" +
		"c1,v1,hello,alice,3.0,1,2024-01-02 03:04:05,null\n" +
		",v1,no id,bob,,,,\n"
	table, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	comments, err := table.Comments()
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("len(comments) = %d; want 2", len(comments))
	}

	c := comments[0]
	if c.CommentID != "c1" || c.LikeCount != 3 || c.ReplyCount != 1 || c.AIReply != nil {
		t.Errorf("first comment = %+v", c)
	}
	if c.CreatedAt == nil || !c.CreatedAt.Equal(*timeRef("2024-01-02T03:04:05Z")) {
		t.Errorf("CreatedAt = %v; want 2024-01-02T03:04:05Z", c.CreatedAt)
	}

	generated := comments[1].CommentID
	if !strings.HasPrefix(generated, "gen-") || len(generated) != len("gen-")+16 {
		t.Errorf("generated id = %q", generated)
	}
	again, err := table.Comments()
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if again[1].CommentID != generated {
		t.Errorf("generated id not stable: %q vs %q", again[1].CommentID, generated)
	}
}

func TestTableCommentsInvalidCount(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("comment_text,like_count\nhi,many\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if _, err := table.Comments(); err == nil {
		t.Fatal("Comments with invalid like_count expected error")
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "comments.JSON")
	if err := os.WriteFile(jsonPath, []byte(`[{"text": "hi"}, {"text": "yo"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(jsonPath)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("rows = %d; want 2", len(table.Rows))
	}

	if _, err := LoadTable(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("LoadTable of missing file expected error")
	}
}
