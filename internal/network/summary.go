package network

import (
	"strconv"
	"strings"

	"github.com/surge-devops/surge/internal/core"
)

// DefaultTraceLines is the number of non-blank hop lines shown before the
// middle of a traceroute is elided.
const DefaultTraceLines = 12

const curlWriteOut = "HTTP %{http_code} | total %{time_total}s | connect %{time_connect}s | ttfb %{time_starttransfer}s\n"

// NormalizeURL prefixes http:// when no scheme is given.
func NormalizeURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "http://" + u
}

// SummarizePing condenses ping output to "sent=N | loss=X% | avg_rtt_ms=Y".
// When neither the statistics nor the rtt line is present, the first 200
// characters of the raw output are returned instead.
func SummarizePing(out string) string {
	var bits []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "packets transmitted") && strings.Contains(line, "packet loss") {
			fields := strings.Fields(strings.ReplaceAll(line, ",", ""))
			if len(fields) > 0 {
				if sent, err := strconv.Atoi(fields[0]); err == nil {
					bits = append(bits, "sent="+strconv.Itoa(sent))
				}
			}
			for _, f := range fields {
				if strings.HasSuffix(f, "%") {
					bits = append(bits, "loss="+f)
					break
				}
			}
		}
		if strings.Contains(line, "rtt min/avg/max") || strings.Contains(line, "round-trip min/avg/max") {
			if _, stats, ok := strings.Cut(line, "="); ok {
				parts := strings.Split(stats, "/")
				if len(parts) > 1 {
					bits = append(bits, "avg_rtt_ms="+strings.TrimSpace(parts[1]))
				}
			}
		}
	}
	if len(bits) == 0 {
		return core.Truncate(out, 200)
	}
	return strings.Join(bits, " | ")
}

// SummarizeTrace keeps the first and last half of maxLines non-blank hops
// with "..." between them when the trace is longer than maxLines.
func SummarizeTrace(out string, maxLines int) string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) <= maxLines {
		return out
	}
	half := maxLines / 2
	kept := make([]string, 0, maxLines+1)
	kept = append(kept, lines[:half]...)
	kept = append(kept, "...")
	kept = append(kept, lines[len(lines)-half:]...)
	return strings.Join(kept, "\n")
}
