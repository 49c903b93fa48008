package report

import (
	"html/template"
	"io"
	"time"

	"jit-rca/internal/visuals"
)

// Page is the data of the rendered HTML report.
type Page struct {
	Title     string
	Generated time.Time
	Result    *Result
	Charts    []string
}

var pageTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"cell":       Cell,
	"unfence":    visuals.Unfence,
	"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(pageHTML))

// WriteHTML renders every table of res as a standalone page. With charts on, the Mermaid
// diagrams are embedded and rendered client-side.
func WriteHTML(w io.Writer, res *Result, title string, charts bool, now time.Time) error {
	p := Page{Title: title, Generated: now, Result: res}
	if charts {
		p.Charts = Charts(res)
	}
	return pageTemplate.ExecuteTemplate(w, "page", p)
}

// Charts returns the fenced Mermaid diagrams of a result, skipping empty ones.
func Charts(res *Result) []string {
	var out []string
	add := func(c string) {
		if c != "" {
			out = append(out, c)
		}
	}

	add(visuals.CompliancePie(res.Compliance.Summary))
	add(visuals.OutsideTrendChart(res.Outside))
	for _, d := range res.Distributions {
		add(visuals.SeverityChart(d))
		add(visuals.CumulativeChart(d))
	}
	add(visuals.ParetoChart(res.RootCause.Diagnosis.Pareto))
	return out
}

const pageHTML = `
{{define "page"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, sans-serif; background: #f5f5f5; color: #333; margin: 0; }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        h1 { font-size: 1.5rem; }
        .sub { color: #666; }
        .card { background: white; border-radius: 8px; padding: 16px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); overflow-x: auto; }
        table { border-collapse: collapse; font-size: 0.85rem; }
        th, td { padding: 4px 10px; border-bottom: 1px solid #eee; text-align: left; white-space: nowrap; }
        th { background: #fafafa; }
        .empty { color: #999; font-style: italic; }
    </style>
</head>
<body>
<div class="container">
    <h1>{{.Title}}</h1>
    <p class="sub">Generated {{formatTime .Generated}} · tolerance {{.Result.Tolerance}} min</p>
    {{with .Result.RootCause.Diagnosis.Message}}<p class="sub">{{.}}</p>{{end}}
    {{range .Charts}}<div class="card"><pre class="mermaid">{{unfence .}}</pre></div>{{end}}
    {{range .Result.Tables}}{{template "table" .}}{{end}}
</div>
{{if .Charts}}<script type="module">
    import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
    mermaid.initialize({ startOnLoad: true });
</script>{{end}}
</body>
</html>
{{end}}

{{define "table"}}
<div class="card">
    <h2>{{.Name}}</h2>
    <table>
        <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
        {{range .Rows}}<tr>{{range .}}<td>{{cell .}}</td>{{end}}</tr>{{end}}
    </table>
    {{if not .Rows}}<p class="empty">No data.</p>{{end}}
</div>
{{end}}
`
