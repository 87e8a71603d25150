// Package monitor samples container resource usage while a load run is in progress
package monitor

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Column positions of `docker stats --no-stream` after splitting on whitespace:
// ID NAME CPU% MEMUSAGE / LIMIT MEM% NETIN / NETOUT BLOCKIN / BLOCKOUT PIDS
const (
	colName   = 1
	colCPU    = 2
	colMemory = 3
	colNetIn  = 7
	colNetOut = 9
)

const (
	bytesPerMiB = 1 << 20
	bytesPerKB  = 1000
)

// Sample is one container's line of a stats snapshot
type Sample struct {
	Container string
	CPU       float64 // percent
	MemoryMiB float64
	NetInKB   float64 // cumulative since container start
	NetOutKB  float64 // cumulative since container start
}

// ParseStats parses the table printed by the stats command. The header line
// and blank lines are skipped. Lines that cannot be parsed are skipped too
// and counted in the second return value.
func ParseStats(out []byte) ([]Sample, int) {
	var samples []Sample
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		sample, err := parseLine(line)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}
	return samples, skipped
}

func parseLine(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) <= colNetOut {
		return Sample{}, fmt.Errorf("expected at least %d fields, got %d", colNetOut+1, len(fields))
	}

	cpu, err := strconv.ParseFloat(strings.TrimSuffix(fields[colCPU], "%"), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("cpu: %w", err)
	}
	memory, err := parseSize(fields[colMemory], bytesPerMiB)
	if err != nil {
		return Sample{}, fmt.Errorf("memory: %w", err)
	}
	netIn, err := parseSize(fields[colNetIn], bytesPerKB)
	if err != nil {
		return Sample{}, fmt.Errorf("net in: %w", err)
	}
	netOut, err := parseSize(fields[colNetOut], bytesPerKB)
	if err != nil {
		return Sample{}, fmt.Errorf("net out: %w", err)
	}

	return Sample{
		Container: fields[colName],
		CPU:       cpu,
		MemoryMiB: memory,
		NetInKB:   netIn,
		NetOutKB:  netOut,
	}, nil
}

// parseSize converts "12.5MiB" or "1.2kB" into the given unit
func parseSize(s string, unit float64) (float64, error) {
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return float64(b) / unit, nil
}
