package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/squat-coach/internal/logic"
	"github.com/sweeney/squat-coach/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"seconds": func(f float64) string {
		return fmt.Sprintf("%.1fs", f)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Squat Coach</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.good { color: green; font-weight: bold; }
.bad { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Squat Coach</h1>

<h2>Now</h2>
<table>
<tr><th>Phase</th><td id="phase">{{.Phase}}</td></tr>
<tr><th>Reps</th><td id="reps">{{.Counts.Reps}}</td></tr>
<tr><th>Correct</th><td>{{.Counts.Correct}}{{if .Counts.Reps}} ({{percent .Stats.CorrectRatio}}){{end}}</td></tr>
{{range .Feedback}}<tr><th>{{.Key}}</th><td>{{.Value}}</td></tr>
{{end}}</table>

{{if .Instructions}}<h2>Coaching</h2>
<ul>
{{range .Instructions}}<li>{{.Value}}</li>
{{end}}</ul>{{end}}

<h2>Recent Reps</h2>
<table>
<tr><th>#</th><td>verdict, duration, faults</td></tr>
{{range .Reps.Reps}}<tr><th>{{.Number}}</th><td><span class="{{if .Correct}}good{{else}}bad{{end}}">{{if .Correct}}good{{else}}fix{{end}}</span> {{.DurationMs}}ms{{range .Faults}} · {{.Type}} ({{.Phase}}){{end}}</td></tr>
{{else}}<tr><td colspan="2">no reps yet</td></tr>
{{end}}</table>

<h2>Session</h2>
<table>
<tr><th>Session</th><td>{{.Session}}</td></tr>
<tr><th>Mean rep</th><td>{{seconds .Stats.MeanSeconds}} ± {{seconds .Stats.StdDevSeconds}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Frames topic</th><td>{{.Config.FramesTopic}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/reps.json">reps</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

type kv struct {
	Key   string
	Value string
}

func sortedFeedback(fb map[logic.Channel]string) []kv {
	out := make([]kv, 0, len(fb))
	for ch, msg := range fb {
		out = append(out, kv{string(ch), msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sortedInstructions(ins map[logic.Phase]map[logic.FaultType]string) []kv {
	var out []kv
	for phase, byType := range ins {
		for ft, msg := range byType {
			out = append(out, kv{string(phase) + "/" + string(ft), msg})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template ranges need ordered slices, not maps keyed by custom types.
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		Feedback     []kv
		Instructions []kv
		Reps         RepsJSON
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		Feedback:     sortedFeedback(snap.Feedback),
		Instructions: sortedInstructions(snap.Instructions),
		Reps:         repsView(snap),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Errorf("web: render index: %v", err)
	}
}
