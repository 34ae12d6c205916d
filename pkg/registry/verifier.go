package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/skills"
	"github.com/pkg/errors"
)

// DriftError reports names that differ between the store and the directory.
type DriftError struct {
	Missing []string
	Extra   []string
}

func (e *DriftError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing from registry: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("not on disk: %s", strings.Join(e.Extra, ", ")))
	}
	return "registry drift detected: " + strings.Join(parts, "; ")
}

// DriftReport is the outcome of a verification.
type DriftReport struct {
	// Missing names are on disk but not registered.
	Missing []string `json:"missing" yaml:"missing"`
	// Extra names are registered but not on disk.
	Extra      []string `json:"extra" yaml:"extra"`
	Actual     int      `json:"actual" yaml:"actual"`
	Registered int      `json:"registered" yaml:"registered"`
	// Warnings hold directory problems that made the actual set empty.
	Warnings []error `json:"-" yaml:"-"`
}

// InSync reports whether no drift was found.
func (r *DriftReport) InSync() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// Err converts a report with drift into a *DriftError.
func (r *DriftReport) Err() error {
	if r.InSync() {
		return nil
	}
	return &DriftError{Missing: r.Missing, Extra: r.Extra}
}

// Verifier compares the store with the directory without writing to either.
type Verifier struct {
	discovery *skills.Discovery
	store     *Store
	attempts  uint
	delay     time.Duration
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithReadRetry sets how often an unparseable store is re-read.
func WithReadRetry(attempts uint, delay time.Duration) VerifierOption {
	return func(v *Verifier) {
		if attempts > 0 {
			v.attempts = attempts
		}
		v.delay = delay
	}
}

// NewVerifier creates a verifier.
func NewVerifier(discovery *skills.Discovery, store *Store, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		discovery: discovery,
		store:     store,
		attempts:  3,
		delay:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports names present on only one side. A missing store returns
// ErrRegistryNotFound. A store that still fails to parse after retries is
// returned as an error because drift cannot be determined.
func (v *Verifier) Verify(ctx context.Context) (*DriftReport, error) {
	doc, err := v.readStore(ctx)
	if err != nil {
		return nil, err
	}

	report := &DriftReport{Missing: []string{}, Extra: []string{}}

	actual, err := v.discovery.ListSkillNames()
	if err != nil {
		logger.G(ctx).WithError(err).Warn("verifying against an unreadable skills directory")
		report.Warnings = append(report.Warnings, err)
	}

	onDisk := make(map[string]bool, len(actual))
	for _, name := range actual {
		onDisk[name] = true
		if _, ok := doc.Skills[name]; !ok {
			report.Missing = append(report.Missing, name)
		}
	}
	for name := range doc.Skills {
		if !onDisk[name] {
			report.Extra = append(report.Extra, name)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Extra)
	report.Actual = len(actual)
	report.Registered = len(doc.Skills)

	if !report.InSync() {
		logger.G(ctx).
			WithField("missing", report.Missing).
			WithField("extra", report.Extra).
			Warn("registry drift detected")
	}
	return report, nil
}

func (v *Verifier) readStore(ctx context.Context) (*Document, error) {
	var doc *Document
	err := retry.Do(
		func() error {
			var err error
			doc, err = v.store.Read()
			return err
		},
		retry.RetryIf(isParseError),
		retry.Attempts(v.attempts),
		retry.Delay(v.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Debug("retrying registry read")
		}),
	)
	if err != nil {
		if isParseError(err) {
			return nil, errors.Wrap(err, "registry unreadable, drift unknown")
		}
		return nil, err
	}
	return doc, nil
}

func isParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
