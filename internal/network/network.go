// Package network runs the on-demand network diagnostics: ping, traceroute
// (with an mtr fallback), curl, dig (with an nslookup fallback) and ss.
package network

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/runner"
)

// DefaultCount is the number of ICMP echo requests sent by default.
const DefaultCount = 5

var (
	// ErrNothingToDo is returned when no diagnostic was requested.
	ErrNothingToDo = errors.New("nothing to do: provide at least one of --host, --url, --domain, --sockets")
	// ErrInvalidOption marks a malformed option value.
	ErrInvalidOption = errors.New("invalid option")
)

var dnsTypePattern = regexp.MustCompile(`^[A-Za-z]+$`)

// Options selects which diagnostics to run. A nil pointer means the option
// was not given; a non-nil pointer to a blank string is a usage error.
type Options struct {
	URL     *string
	Host    *string
	Domain  *string
	Count   int
	DNSType string
	Sockets bool
	NoTrace bool
}

// Section is one titled block of diagnostic output.
type Section struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Warn   bool   `json:"warn,omitempty"`
	Source string `json:"source,omitempty"`
}

// Report is the ordered result of a diagnostics run.
type Report struct {
	Sections []Section `json:"sections"`
}

// Section returns the section with the given title, if present.
func (r *Report) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

func (r *Report) add(title, source, body, warn string) {
	if strings.TrimSpace(body) == "" {
		r.Sections = append(r.Sections, Section{Title: title, Body: warn, Warn: true, Source: source})
		return
	}
	r.Sections = append(r.Sections, Section{Title: title, Body: body, Source: source})
}

// Validate checks option values before any tool runs. Blank values and
// non-positive counts are reported as ErrInvalidOption; an empty request
// is ErrNothingToDo.
func (o Options) Validate() error {
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"--host", o.Host},
		{"--url", o.URL},
		{"--domain", o.Domain},
	} {
		if f.val == nil {
			continue
		}
		v := strings.TrimSpace(*f.val)
		if v == "" {
			return fmt.Errorf("%s was provided but empty: %w", f.name, ErrInvalidOption)
		}
		if strings.HasPrefix(v, "-") {
			return fmt.Errorf("%s %q must not start with '-': %w", f.name, v, ErrInvalidOption)
		}
	}
	if o.Count <= 0 {
		return fmt.Errorf("--count must be a positive integer, got %d: %w", o.Count, ErrInvalidOption)
	}
	if !dnsTypePattern.MatchString(o.DNSType) {
		return fmt.Errorf("--type %q is not a DNS record type: %w", o.DNSType, ErrInvalidOption)
	}
	if o.Host == nil && o.URL == nil && o.Domain == nil && !o.Sockets {
		return ErrNothingToDo
	}
	return nil
}

// Diagnostics runs network tools through a Runner.
type Diagnostics struct {
	run runner.Runner
}

// New creates Diagnostics backed by r.
func New(r runner.Runner) *Diagnostics {
	return &Diagnostics{run: r}
}

// Run validates opts and executes only the requested diagnostics, in the
// order ping, traceroute, HTTP, DNS, sockets.
func (d *Diagnostics) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.DNSType == "" {
		opts.DNSType = "A"
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}

	if opts.Host != nil {
		host := strings.TrimSpace(*opts.Host)
		if err := d.ping(ctx, report, host, opts.Count); err != nil {
			return nil, err
		}
		if !opts.NoTrace {
			if err := d.trace(ctx, report, host); err != nil {
				return nil, err
			}
		}
	}

	if opts.URL != nil {
		if err := d.http(ctx, report, NormalizeURL(strings.TrimSpace(*opts.URL))); err != nil {
			return nil, err
		}
	}

	if opts.Domain != nil {
		if err := d.dns(ctx, report, strings.TrimSpace(*opts.Domain), strings.ToUpper(opts.DNSType)); err != nil {
			return nil, err
		}
	}

	if opts.Sockets {
		if err := d.sockets(ctx, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (d *Diagnostics) ping(ctx context.Context, report *Report, host string, count int) error {
	out, missing, err := d.output(ctx, "ping", "-c", strconv.Itoa(count), host)
	if err != nil {
		return err
	}
	body := ""
	if out != "" {
		body = SummarizePing(out)
	}
	report.add("Ping", "ping", body, warning("ping", missing))
	return nil
}

func (d *Diagnostics) trace(ctx context.Context, report *Report, host string) error {
	res, err := runner.First(ctx, d.run,
		runner.Cmd("traceroute", host),
		runner.Cmd("mtr", "-r", host),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		log.Debug().Err(err).Msg("Traceroute tools failed")
	}
	body := ""
	if res.Stdout != "" {
		body = SummarizeTrace(res.Stdout, DefaultTraceLines)
	}
	report.add("Traceroute", res.Command, body, warning("traceroute/mtr", errors.Is(err, runner.ErrNotFound)))
	return nil
}

func (d *Diagnostics) http(ctx context.Context, report *Report, url string) error {
	brief, missing, err := d.output(ctx, "curl", "-s", "-o", "/dev/null", "-w", curlWriteOut, url)
	if err != nil {
		return err
	}
	var headers string
	if !missing {
		if headers, _, err = d.output(ctx, "curl", "-s", "-I", url); err != nil {
			return err
		}
	}
	var parts []string
	if brief != "" {
		parts = append(parts, brief)
	}
	if headers != "" {
		parts = append(parts, headers)
	}
	report.add("HTTP (curl)", "curl", strings.Join(parts, "\n"), warning("curl", missing))
	return nil
}

func (d *Diagnostics) dns(ctx context.Context, report *Report, domain, rtype string) error {
	res, err := runner.First(ctx, d.run,
		runner.Cmd("dig", "+short", domain, rtype),
		runner.Cmd("nslookup", "-type="+rtype, domain),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		log.Debug().Err(err).Msg("DNS tools failed")
	}
	report.add("DNS", res.Command, res.Stdout, warning("dig/nslookup", errors.Is(err, runner.ErrNotFound)))
	return nil
}

func (d *Diagnostics) sockets(ctx context.Context, report *Report) error {
	out, missing, err := d.output(ctx, "ss", "-tulwn")
	if err != nil {
		return err
	}
	report.add("Sockets (ss)", "ss", out, warning("ss", missing))
	return nil
}

// warning is the message for a section that produced nothing.
func warning(tools string, missing bool) string {
	if missing {
		return tools + " is not installed"
	}
	return tools + " not available or produced no output"
}

// output runs one tool and returns its stdout and whether the binary was
// missing. Failed runs degrade to empty output so the section can warn;
// only cancellation is propagated.
func (d *Diagnostics) output(ctx context.Context, name string, args ...string) (string, bool, error) {
	res, err := d.run.Run(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}
		log.Debug().Err(err).Str("command", name).Msg("Network tool failed")
		return res.Stdout, errors.Is(err, runner.ErrNotFound), nil
	}
	return res.Stdout, false, nil
}
