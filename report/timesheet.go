package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/numen-ops/easytime/internal/timesheet"
)

var monthlyTemplate = template.Must(template.New("monthly").Funcs(template.FuncMap{
	"hours": func(minutes int) string {
		return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
	},
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Apontamentos {{.Summary.Month}}/{{.Summary.Year}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
table { width: 100%; border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f5; }
.total { font-weight: bold; }
</style>
</head>
<body>
<h1>Apontamentos de {{.Owner}}</h1>
<p>Período: {{printf "%02d" .Summary.Month}}/{{.Summary.Year}}</p>
<h2>Por projeto</h2>
<table>
<tr><th>Projeto</th><th>Horas</th></tr>
{{range .Summary.ByProject}}<tr><td>{{.ProjectName}}</td><td>{{hours .Minutes}}</td></tr>
{{end}}<tr class="total"><td>Total</td><td>{{hours .Summary.TotalMinutes}}</td></tr>
</table>
<h2>Por dia</h2>
<table>
<tr><th>Dia</th><th>Horas</th></tr>
{{range .Summary.ByDay}}<tr><td>{{.Day.Format "02/01/2006"}}</td><td>{{hours .Minutes}}</td></tr>
{{end}}</table>
</body>
</html>`))

type monthlyData struct {
	Owner   string
	Summary timesheet.MonthlySummary
}

// MonthlyTimesheetHTML builds the printable document for one user's month.
func MonthlyTimesheetHTML(owner string, summary timesheet.MonthlySummary) (string, error) {
	var buf bytes.Buffer
	if err := monthlyTemplate.Execute(&buf, monthlyData{Owner: owner, Summary: summary}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
