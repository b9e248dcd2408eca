package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"whorep/internal/civic"
	"whorep/internal/finance"
	"whorep/internal/hierarchy"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"dollars": func(n int64) string { return fmt.Sprintf("$%d", n) },
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}
	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// ReportData holds data for report template rendering
type ReportData struct {
	Title       string
	Address     string
	HomeState   string
	GeneratedAt time.Time
	Tally       []hierarchy.TallyEntry
	Groups      []ReportGroup
	Notice      string
}

type ReportGroup struct {
	Name    string
	Tally   []hierarchy.TallyEntry
	Members []ReportMember
}

type ReportMember struct {
	Summary      string
	Fields       []civic.Field
	Contributors []finance.Contribution
	Industries   []finance.Contribution
}

// NewReportData flattens h for the report template.
func NewReportData(h *hierarchy.Hierarchy, now time.Time) ReportData {
	data := ReportData{
		Title:       "Officeholders for " + h.Address,
		Address:     h.Address,
		HomeState:   h.HomeState,
		GeneratedAt: now,
		Tally:       h.RootTally().Entries(),
		Notice:      finance.ContributorNotice,
	}
	for _, g := range h.Groups() {
		group := ReportGroup{Name: g.Kind.String(), Tally: g.Tally().Entries()}
		for _, m := range g.Members {
			member := ReportMember{Summary: m.Summary(), Fields: m.Details()}
			if p := m.FinancialProfile(); p != nil {
				member.Contributors = p.Contributors
				member.Industries = p.Industries
			}
			group.Members = append(group.Members, member)
		}
		data.Groups = append(data.Groups, group)
	}
	return data
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{range .Groups}}
  <h2>{{.Name}}</h2>
  <ul>{{range .Members}}<li>{{.Summary}}</li>{{end}}</ul>
  {{end}}
</body>
</html>`
