package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"
)

// RunOrg is the data behind an Org-mode summary of one stored run.
type RunOrg struct {
	Run      RunRecord
	Results  []ResultRecord
	Failures []FailureRecord
}

var runOrgFuncs = template.FuncMap{
	"pct": func(gain float64) float64 { return (gain - 1) * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// Format renders the run as an Org heading with a properties drawer and a
// result table.
func (o RunOrg) Format() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, o); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write renders the run to path.
func (o RunOrg) Write(path string) error {
	s, err := o.Format()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* BACKTEST: SMA-Cross {{.Run.ShortWindow}}/{{.Run.LongWindow}}
:PROPERTIES:
:RUN_ID:      {{if .Run.RunID}}{{.Run.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Run.Strategy}}
:DATASET:     {{if .Run.Dataset}}{{.Run.Dataset}}{{else}}(dataset?){{end}}
:SPLIT:       {{printf "%.2f" .Run.SplitFraction}}
:INSTRUMENTS: {{.Run.Instruments}}
:FAILURES:    {{.Run.Failures}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Results
| Symbol | Training % | Legs | Testing % | Legs | Hold (test) % |
|--------+------------+------+-----------+------+---------------|
{{- range .Results }}
| {{.Instrument}} | {{printf "%.2f" (pct .TrainingGain)}} | {{.TrainingLegs}} | {{printf "%.2f" (pct .TestingGain)}} | {{.TestingLegs}} | {{printf "%.2f" (pct .TestingBenchmark)}} |
{{- end }}
{{- if .Failures }}

** Failures
{{- range .Failures }}
- {{.Instrument}}{{if .Segment}} ({{.Segment}}){{end}}: {{.Error}}
{{- end }}
{{- end }}
`
