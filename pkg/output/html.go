package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
)

// HTMLReport represents data for the HTML report template
type HTMLReport struct {
	Title         string
	Timestamp     string
	Host          string
	AppVersion    string
	Auth          string
	Requests      int
	Endpoints     int
	TotalRequests int
	TotalElapsed  string
	AccessDenied  int64
	Percentiles   []int
	Rows          []EndpointRow
	Config        ConfigSummary
}

// EndpointRow holds the statistics of one endpoint
type EndpointRow struct {
	Endpoint         string
	Requests         int
	RequestsPerSec   float64
	AvgLatency       string
	StdDevLatency    string
	MinLatency       string
	MaxLatency       string
	Percentiles      []string
	AccessDenied     int64
	HistogramBuckets []HistogramBucketData
}

// HistogramBucketData holds histogram bucket information
type HistogramBucketData struct {
	Range      string
	Count      int64
	Percentage float64
	BarWidth   int
}

// ConfigSummary holds configuration summary
type ConfigSummary struct {
	Timeout   string
	RateLimit int
	HTTP2     bool
	KeepAlive bool
	Seed      int64
}

// WriteHTML renders an HTML report of all endpoint results
func WriteHTML(w io.Writer, cfg *config.Config, results []*benchmark.EndpointResult) error {
	report := buildHTMLReport(cfg, results)

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("error parsing HTML template: %w", err)
	}

	if err := tmpl.Execute(w, report); err != nil {
		return fmt.Errorf("error executing HTML template: %w", err)
	}
	return nil
}

func buildHTMLReport(cfg *config.Config, results []*benchmark.EndpointResult) HTMLReport {
	report := HTMLReport{
		Title:       cfg.Name,
		Timestamp:   time.Now().Format(time.RFC3339),
		Host:        cfg.Host,
		AppVersion:  cfg.AppVersion,
		Auth:        cfg.Auth,
		Requests:    cfg.Requests,
		Endpoints:   len(results),
		Percentiles: cfg.Settings.Percentiles,
		Config: ConfigSummary{
			Timeout:   cfg.Settings.Timeout,
			RateLimit: cfg.Settings.RateLimit,
			HTTP2:     cfg.Settings.HTTP2,
			KeepAlive: !cfg.IsKeepAliveDisabled(),
			Seed:      cfg.Settings.Seed,
		},
	}

	var elapsed float64
	for _, r := range results {
		elapsed += r.ElapsedTime
		report.TotalRequests += r.NumberOfRequests
		report.AccessDenied += r.AccessDenied

		row := EndpointRow{
			Endpoint:         r.Endpoint,
			Requests:         r.NumberOfRequests,
			RequestsPerSec:   r.RequestsPerSecond,
			AvgLatency:       FormatLatency(r.AvgResponseTime),
			StdDevLatency:    FormatLatency(r.StdDevResponseTime),
			MinLatency:       FormatLatency(r.MinResponseTime),
			MaxLatency:       FormatLatency(r.MaxResponseTime),
			AccessDenied:     r.AccessDenied,
			HistogramBuckets: histogramData(r.Buckets()),
		}
		for _, p := range cfg.Settings.Percentiles {
			row.Percentiles = append(row.Percentiles, FormatLatency(r.Percentile(p)))
		}
		report.Rows = append(report.Rows, row)
	}
	report.TotalElapsed = fmt.Sprintf("%.2fs", elapsed)

	return report
}

func histogramData(buckets []benchmark.HistogramBucket) []HistogramBucketData {
	histData := make([]HistogramBucketData, len(buckets))
	maxPct := float64(0)
	for _, b := range buckets {
		if b.Percentage > maxPct {
			maxPct = b.Percentage
		}
	}
	if maxPct == 0 {
		maxPct = 1
	}

	for i, b := range buckets {
		var rangeStr string
		if b.RangeEnd == -1 {
			rangeStr = fmt.Sprintf("%s+", benchmark.FormatDurationShort(b.RangeStart))
		} else {
			rangeStr = fmt.Sprintf("%s - %s", benchmark.FormatDurationShort(b.RangeStart), benchmark.FormatDurationShort(b.RangeEnd))
		}
		histData[i] = HistogramBucketData{
			Range:      rangeStr,
			Count:      b.Count,
			Percentage: b.Percentage,
			BarWidth:   int(b.Percentage / maxPct * 100),
		}
	}
	return histData
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Title}}{{.Title}} - {{end}}Response Time Report</title>
    <style>
        :root { --fg: #1f2328; --muted: #656d76; --line: #d0d7de; --panel: #f6f8fa; --blue: #0969da; --green: #1a7f37; --red: #cf222e; }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font: 15px/1.5 system-ui, -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; color: var(--fg); padding: 2rem; }
        .container { max-width: 1100px; margin: 0 auto; }
        header { margin-bottom: 1.5rem; border-bottom: 2px solid var(--line); padding-bottom: 0.75rem; }
        h1 { font-size: 1.6rem; }
        .timestamp, .sub, footer, th, .config-item label { color: var(--muted); }
        .timestamp { font-size: 0.85rem; }
        .summary-grid { display: flex; flex-wrap: wrap; gap: 0.75rem; margin-bottom: 1.5rem; }
        .summary-card { flex: 1 1 200px; background: var(--panel); border: 1px solid var(--line); border-radius: 6px; padding: 1rem; }
        .summary-card h3 { font-size: 0.75rem; text-transform: uppercase; color: var(--muted); }
        .summary-card .value { font-size: 1.5rem; font-weight: 600; }
        .value.accent { color: var(--blue); }
        .value.success { color: var(--green); }
        .value.error { color: var(--red); }
        .sub { font-size: 0.8rem; }
        section { border: 1px solid var(--line); border-radius: 6px; padding: 1rem 1.25rem; margin-bottom: 1.25rem; }
        section h2 { font-size: 1rem; margin-bottom: 0.75rem; }
        table { width: 100%; border-collapse: collapse; font-variant-numeric: tabular-nums; }
        th, td { padding: 0.4rem 0.6rem; text-align: right; border-bottom: 1px solid var(--line); }
        th:first-child, td:first-child { text-align: left; }
        th { font-size: 0.75rem; font-weight: 500; text-transform: uppercase; }
        .histogram-bar { background: var(--panel); height: 16px; border-radius: 3px; }
        .histogram-fill { background: var(--blue); height: 100%; border-radius: 3px; }
        .config-grid { display: flex; flex-wrap: wrap; gap: 1.5rem; }
        .config-item label { display: block; font-size: 0.8rem; }
        footer { text-align: center; font-size: 0.8rem; padding-top: 0.5rem; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{if .Title}}{{.Title}}{{else}}Response Time Report{{end}}</h1>
            <p class="timestamp">Generated: {{.Timestamp}}</p>
        </header>

        <div class="summary-grid">
            <div class="summary-card">
                <h3>Application Version</h3>
                <div class="value accent">{{.AppVersion}}</div>
                <div class="sub">Auth: {{.Auth}}</div>
            </div>
            <div class="summary-card">
                <h3>Total Requests</h3>
                <div class="value">{{.TotalRequests}}</div>
                <div class="sub">{{.Endpoints}} endpoints x {{.Requests}}</div>
            </div>
            <div class="summary-card">
                <h3>Elapsed</h3>
                <div class="value">{{.TotalElapsed}}</div>
                <div class="sub">{{.Host}}</div>
            </div>
            <div class="summary-card">
                <h3>Access Denied</h3>
                <div class="value {{if .AccessDenied}}error{{else}}success{{end}}">{{.AccessDenied}}</div>
                <div class="sub">tolerated 401 responses</div>
            </div>
        </div>

        <section>
            <h2>Endpoints</h2>
            <table>
                <thead>
                    <tr>
                        <th>Endpoint</th>
                        <th>Requests</th>
                        <th>Req/s</th>
                        <th>Avg</th>
                        <th>Stdev</th>
                        <th>Min</th>
                        <th>Max</th>
                        {{range .Percentiles}}<th>p{{.}}</th>{{end}}
                        <th>Denied</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Rows}}
                    <tr>
                        <td>{{.Endpoint}}</td>
                        <td>{{.Requests}}</td>
                        <td>{{printf "%.2f" .RequestsPerSec}}</td>
                        <td>{{.AvgLatency}}</td>
                        <td>{{.StdDevLatency}}</td>
                        <td>{{.MinLatency}}</td>
                        <td>{{.MaxLatency}}</td>
                        {{range .Percentiles}}<td>{{.}}</td>{{end}}
                        <td>{{.AccessDenied}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </section>

        {{range .Rows}}
        {{if .HistogramBuckets}}
        <section>
            <h2>{{.Endpoint}} Latency Distribution</h2>
            <table>
                <thead>
                    <tr>
                        <th>Range</th>
                        <th>Distribution</th>
                        <th>Count</th>
                        <th>%</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .HistogramBuckets}}
                    <tr>
                        <td>{{.Range}}</td>
                        <td>
                            <div class="histogram-bar">
                                <div class="histogram-fill" style="width: {{.BarWidth}}%"></div>
                            </div>
                        </td>
                        <td>{{.Count}}</td>
                        <td>{{printf "%.1f" .Percentage}}%</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </section>
        {{end}}
        {{end}}

        <section>
            <h2>Configuration</h2>
            <div class="config-grid">
                <div class="config-item">
                    <label>Timeout</label>
                    <span>{{.Config.Timeout}}</span>
                </div>
                {{if .Config.RateLimit}}
                <div class="config-item">
                    <label>Rate Limit</label>
                    <span>{{.Config.RateLimit}} req/s</span>
                </div>
                {{end}}
                <div class="config-item">
                    <label>HTTP/2</label>
                    <span>{{if .Config.HTTP2}}Enabled{{else}}Disabled{{end}}</span>
                </div>
                <div class="config-item">
                    <label>Keep-Alive</label>
                    <span>{{if .Config.KeepAlive}}Enabled{{else}}Disabled{{end}}</span>
                </div>
                {{if .Config.Seed}}
                <div class="config-item">
                    <label>Seed</label>
                    <span>{{.Config.Seed}}</span>
                </div>
                {{end}}
            </div>
        </section>

        <footer>
            <p>Generated by bankbench</p>
        </footer>
    </div>
</body>
</html>`
