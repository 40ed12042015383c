package ytdash

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var reportTemplate string

//go:embed templates/styles.css
var cssStyles string

// Plotly's Set3 qualitative palette.
var clusterColors = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

type plotMarker struct {
	Size    int     `json:"size"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Symbol  string  `json:"symbol,omitempty"`
}

type plotTrace struct {
	Type          string     `json:"type"`
	Mode          string     `json:"mode"`
	Name          string     `json:"name"`
	X             []float64  `json:"x"`
	Y             []float64  `json:"y"`
	Z             []float64  `json:"z"`
	Text          []string   `json:"text"`
	HoverTemplate string     `json:"hovertemplate"`
	Marker        plotMarker `json:"marker"`
}

// plotTraces splits the payload into one scatter trace per cluster plus a
// trace for the cluster centers.
func plotTraces(data *ClusterData) []plotTrace {
	traces := make([]plotTrace, 0, data.NClusters+1)
	for id := 0; id < data.NClusters; id++ {
		t := plotTrace{
			Type:          "scatter3d",
			Mode:          "markers",
			Name:          fmt.Sprintf("Cluster %d", id),
			X:             []float64{},
			Y:             []float64{},
			Z:             []float64{},
			Text:          []string{},
			HoverTemplate: "<b>%{fullData.name}</b><br>X: %{x:.2f}<br>Y: %{y:.2f}<br>Z: %{z:.2f}<extra>%{text}</extra>",
			Marker:        plotMarker{Size: 5, Color: clusterColors[id%len(clusterColors)], Opacity: 0.7},
		}
		for i, label := range data.ClusterLabels {
			if label != id {
				continue
			}
			t.X = append(t.X, data.X[i])
			t.Y = append(t.Y, data.Y[i])
			t.Z = append(t.Z, data.Z[i])
			t.Text = append(t.Text, data.Comments[i])
		}
		if len(t.X) > 0 {
			traces = append(traces, t)
		}
	}

	centers := plotTrace{
		Type:          "scatter3d",
		Mode:          "markers",
		Name:          "Centers",
		HoverTemplate: "%{text}<extra></extra>",
		Marker:        plotMarker{Size: 9, Color: "#333333", Opacity: 0.9, Symbol: "diamond"},
	}
	for _, s := range data.ClusterAnalyses {
		if len(s.Center) < plotDimension {
			continue
		}
		centers.X = append(centers.X, s.Center[0])
		centers.Y = append(centers.Y, s.Center[1])
		centers.Z = append(centers.Z, s.Center[2])
		centers.Text = append(centers.Text, fmt.Sprintf("Cluster %d: %s", s.ClusterID, strings.Join(s.TopKeywords, ", ")))
	}
	if len(centers.X) > 0 {
		traces = append(traces, centers)
	}
	return traces
}

// formatClusterReport renders the cluster summaries as markdown.
func formatClusterReport(data *ClusterData, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s: %d comments, %d clusters, explained variance %.3f*\n\n",
		source, len(data.Comments), data.NClusters, data.ExplainedVariance)

	if len(data.ClusterAnalyses) == 0 {
		b.WriteString("No clusters were found.\n")
		return b.String()
	}

	b.WriteString("| Cluster | Comments | Keywords | Avg. length | Radius |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, s := range data.ClusterAnalyses {
		fmt.Fprintf(&b, "| %d | %d | %s | %.1f | %.3f |\n",
			s.ClusterID, s.CommentCount, markdownCell(strings.Join(s.TopKeywords, ", ")), s.AvgCommentLength, s.Radius)
	}
	b.WriteString("\n")

	for _, s := range data.ClusterAnalyses {
		fmt.Fprintf(&b, "## Cluster %d\n\n", s.ClusterID)
		if len(s.TopKeywords) > 0 {
			fmt.Fprintf(&b, "**Keywords:** %s\n\n", markdownText(strings.Join(s.TopKeywords, ", ")))
		}
		for _, c := range s.SampleComments {
			fmt.Fprintf(&b, "> %s\n\n", markdownText(c))
		}
	}
	return b.String()
}

func markdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var markdownEscaper = func() *strings.Replacer {
	var pairs []string
	for _, r := range "\\`*_{}[]()#+-.!|<>~:" {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	pairs = append(pairs, "\r", " ", "\n", " ")
	return strings.NewReplacer(pairs...)
}()

// markdownText escapes comment text so it renders as a single literal
// paragraph.
func markdownText(s string) string {
	return markdownEscaper.Replace(s)
}

// renderMarkdown converts markdown to HTML. Raw HTML in the input is dropped.
func renderMarkdown(markdownContent string) (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// generateClusterHTML builds a standalone page with the 3D scatter plot and
// the cluster summaries.
func generateClusterHTML(data *ClusterData, source string) (string, error) {
	body, err := renderMarkdown(formatClusterReport(data, source))
	if err != nil {
		return "", err
	}
	traces, err := json.Marshal(plotTraces(data))
	if err != nil {
		return "", fmt.Errorf("failed to marshal plot traces: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	page := struct {
		Title  string
		Date   string
		Body   template.HTML
		CSS    template.CSS
		Traces template.JS
	}{
		Title:  "3D Comment Clustering Visualization",
		Date:   time.Now().Format("2006-01-02 15:04"),
		Body:   body,
		CSS:    template.CSS(cssStyles),
		Traces: template.JS(traces),
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, page); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return result.String(), nil
}
