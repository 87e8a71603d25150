package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []*benchmark.EndpointResult {
	s := benchmark.NewStats(3)
	s.Add(2*time.Millisecond, benchmark.Outcome{Status: 200})
	s.Add(4*time.Millisecond, benchmark.Outcome{Status: 200})
	s.Add(6*time.Millisecond, benchmark.Outcome{Status: 401, AccessDenied: true, Reason: "accessDenied"})
	r := benchmark.NewEndpointResult(s, "decentralized", "mixed", "getCustomer", time.Now(), 30*time.Millisecond, []int{50, 75, 90, 99})
	return []*benchmark.EndpointResult{r}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Name = "nightly"
	cfg.Requests = 3
	return cfg
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "2.50s", FormatLatency(2.5))
	assert.Equal(t, "12.34ms", FormatLatency(0.01234))
	assert.Equal(t, "750.00us", FormatLatency(0.00075))
}

func TestLineWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "times.log")
	w := NewLineWriter(path)
	assert.Equal(t, path, w.Path())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, w.Append(map[string]int{"i": i}))
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Append(json.RawMessage(`{ "spaced" : true }`)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 21)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)), line)
	}
	assert.Equal(t, `{"spaced":true}`, lines[20])
}

func TestLineWriter_BadPath(t *testing.T) {
	w := NewLineWriter(filepath.Join(t.TempDir(), "missing", "times.log"))
	assert.Error(t, w.Append(map[string]int{"a": 1}))
}

func TestEndpointResultLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "times.log")
	require.NoError(t, NewLineWriter(path).Append(sampleResults()[0]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	for _, key := range []string{
		"application version", "auth", "endpoint", "number of requests",
		"min response time", "max response time", "avg response time",
		"std dev response time", "elapsed time", "requests per second",
	} {
		assert.Contains(t, line, key)
	}
	assert.Equal(t, "getCustomer", line["endpoint"])
	assert.Equal(t, 3.0, line["number of requests"])
	assert.InDelta(t, 0.004, line["avg response time"], 1e-9)
	assert.InDelta(t, 100.0, line["requests per second"], 1e-6)
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	WriteConsole(&buf, sampleResults()[0], []int{50, 99}, true)
	out := buf.String()

	assert.Contains(t, out, "getCustomer (decentralized, auth mixed)")
	assert.Contains(t, out, "Latency Distribution")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "99%")
	assert.NotContains(t, out, "75%")
	assert.Contains(t, out, "Requests:     3 in 0.03s, 100.00 req/s")
	assert.Contains(t, out, "Access denied: 1")
	assert.Contains(t, out, "200 - 2")
	assert.Contains(t, out, "401 accessDenied - 1")
	assert.Contains(t, out, "Response Time Histogram:")
}

func TestWriteConsoleQuietAndSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteConsoleQuiet(&buf, sampleResults()[0])
	assert.Equal(t, "getCustomer: Requests: 3, Duration: 0.03s, Req/s: 100.00, Avg Latency: 4.00ms, Access denied: 1\n", buf.String())

	buf.Reset()
	WriteSummary(&buf, sampleResults())
	assert.Contains(t, buf.String(), "Summary")
	assert.Contains(t, buf.String(), "getCustomer")

	buf.Reset()
	WriteSummary(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testConfig(), sampleResults()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "nightly", got["name"])
	assert.Equal(t, "decentralized", got["app_version"])
	endpoints, ok := got["endpoints"].([]any)
	require.True(t, ok)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "getCustomer", endpoints[0].(map[string]any)["endpoint"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testConfig(), sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "timestamp", header[0])
	assert.Contains(t, header, "p99_response_time")
	assert.Equal(t, len(header), len(records[1]))

	row := map[string]string{}
	for i, h := range header {
		row[h] = records[1][i]
	}
	assert.Equal(t, "nightly", row["name"])
	assert.Equal(t, "getCustomer", row["endpoint"])
	assert.Equal(t, "3", row["number_of_requests"])
	assert.Equal(t, "0.004000", row["avg_response_time"])
	assert.Equal(t, "1", row["access_denied"])
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testConfig(), sampleResults()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>nightly - Response Time Report</title>")
	assert.Contains(t, out, "<td>getCustomer</td>")
	assert.Contains(t, out, "<th>p99</th>")
	assert.Contains(t, out, "getCustomer Latency Distribution")
}

func TestWrite_ToFile(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Format = "csv"
	cfg.Output.File = filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, Write(cfg, sampleResults()))
	data, err := os.ReadFile(cfg.Output.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "getCustomer")

	cfg.Output.Format = "console"
	assert.NoError(t, Write(cfg, sampleResults()))
}
