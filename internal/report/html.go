package report

import (
	"html/template"
	"io"
	"time"

	"github.com/wonny/b3monitor/internal/selection"
)

// Title of the HTML page
const Title = "Monitor de Ações Brasileiras"

// Page is the data behind the HTML table
type Page struct {
	SnapshotID string
	TakenAt    time.Time
	Rows       []selection.Row
	Options    TableOptions
	Reasons    map[string]int
}

type pageView struct {
	Title      string
	SnapshotID string
	TakenAt    string
	Headers    []string
	Rows       []rowView
	Reasons    map[string]int
}

type rowView struct {
	Admitted bool
	Cells    []string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: right; }
th:first-child, td:first-child { text-align: left; }
tr.rejected { color: #999; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .TakenAt}}<p id="snapshot" data-id="{{.SnapshotID}}">Atualizado em {{.TakenAt}}</p>{{end}}
<table id="stocks">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr class="{{if .Admitted}}admitted{{else}}rejected{{end}}">{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr><td colspan="{{len .Headers}}">Nenhuma ação encontrada</td></tr>
{{- end}}
</tbody>
</table>
{{if .Reasons}}<ul id="reasons">{{range $reason, $n := .Reasons}}<li>{{$reason}}: {{$n}}</li>{{end}}</ul>{{end}}
</body>
</html>
`))

// WriteHTML renders page as a standalone HTML document
func WriteHTML(w io.Writer, page Page) error {
	view := pageView{
		Title:      Title,
		SnapshotID: page.SnapshotID,
		Headers:    Headers(page.Options),
		Rows:       make([]rowView, 0, len(page.Rows)),
		Reasons:    page.Reasons,
	}
	if !page.TakenAt.IsZero() {
		view.TakenAt = page.TakenAt.Format("02/01/2006 15:04:05")
	}
	for _, row := range page.Rows {
		view.Rows = append(view.Rows, rowView{
			Admitted: row.Admitted,
			Cells:    Cells(row, page.Options),
		})
	}
	return pageTemplate.Execute(w, view)
}
