package main

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

// renderStatus is the shared view of the render, written by the progress
// callback and read by the debug page.
type renderStatus struct {
	lock sync.Mutex

	scene   string
	width   int
	height  int
	samples int
	seed    int64

	phase     string
	started   time.Time
	rowsDone  int
	rowsTotal int
}

func (s *renderStatus) setPhase(phase string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.phase = phase
}

func (s *renderStatus) setRows(done, total int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rowsDone = done
	s.rowsTotal = total
}

// ready reports an error until the world has been built.
func (s *renderStatus) ready() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.phase == "" || s.phase == "building" {
		return fmt.Errorf("world not built yet")
	}
	return nil
}

type StatusData struct {
	Scene     string
	Width     int
	Height    int
	Samples   int
	Seed      int64
	Phase     string
	Elapsed   time.Duration
	RowsDone  int
	RowsTotal int
	Percent   int
}

func (s *renderStatus) data() *StatusData {
	s.lock.Lock()
	defer s.lock.Unlock()

	d := &StatusData{
		Scene:     s.scene,
		Width:     s.width,
		Height:    s.height,
		Samples:   s.samples,
		Seed:      s.seed,
		Phase:     s.phase,
		Elapsed:   time.Since(s.started).Round(time.Second),
		RowsDone:  s.rowsDone,
		RowsTotal: s.rowsTotal,
	}
	if s.rowsTotal != 0 {
		d.Percent = 100 * s.rowsDone / s.rowsTotal
	}
	return d
}

func (s *renderStatus) RegisterDebugHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/lumen/progress", s.debugHandlerProgress)
}

const progressHTML = `
<!DOCTYPE html>
<head>
	<title>lumen render</title>
	<meta http-equiv="refresh" content="5">
</head>

<h1>Render of {{.Scene}}</h1>
<ul>
<li>Size: {{.Width}}x{{.Height}}, {{.Samples}} samples per pixel</li>
<li>Seed: {{.Seed}}</li>
<li>Phase: {{.Phase}}</li>
<li>Elapsed: {{.Elapsed}}</li>
<li>Rows: {{.RowsDone}}/{{.RowsTotal}} ({{.Percent}}%)</li>
</ul>
`

var progressTemplate = template.Must(template.New("progress").Parse(progressHTML))

func (s *renderStatus) debugHandlerProgress(w http.ResponseWriter, req *http.Request) {
	tracer := otel.Tracer("row-major/lumen/cmd/renderer")
	_, span := tracer.Start(req.Context(), "renderStatus.debugHandlerProgress")
	defer span.End()

	if err := progressTemplate.Execute(w, s.data()); err != nil {
		glog.Errorf("Error while executing template: %v", err)
		return
	}
}

// progressReporter turns row completions into either an in-place progress
// line on a terminal, or occasional log lines otherwise.
type progressReporter struct {
	status *renderStatus

	terminal bool
	out      io.Writer

	logLimiter *rate.Limiter
}

func newProgressReporter(status *renderStatus, out io.Writer, terminal bool, logEvery time.Duration) *progressReporter {
	return &progressReporter{
		status:     status,
		terminal:   terminal,
		out:        out,
		logLimiter: rate.NewLimiter(rate.Every(logEvery), 1),
	}
}

func (p *progressReporter) update(done, total int) {
	p.status.setRows(done, total)

	if p.terminal {
		fmt.Fprintf(p.out, "\r%d/%d %d%%", done, total, 100*done/total)
		if done == total {
			fmt.Fprintf(p.out, "\n")
		}
		return
	}

	if done == total || p.logLimiter.Allow() {
		glog.Infof("Rendered %d/%d rows", done, total)
	}
}
