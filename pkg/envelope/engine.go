package envelope

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFutureMonths is how many months past the last allocation the
	// computed period extends
	DefaultFutureMonths = 1
)

// Options configures an Engine
type Options struct {
	// StartDate overrides the start of the computed period. Defaults to
	// January 1 of the current year.
	StartDate *Date

	// FutureMonths extends the period past the last allocation date.
	// Defaults to DefaultFutureMonths; negative values disable the
	// extension.
	FutureMonths int

	// FutureRollover controls whether positive balances keep carrying
	// into months after the current one. Defaults to true.
	FutureRollover *bool

	// ShowRealAccounts includes real ledger accounts in period views by
	// default
	ShowRealAccounts bool

	// Today overrides the clock, mainly for tests
	Today Date

	// Prices resolves conversion rates for foreign-currency postings
	Prices PriceSource

	// Logger for structured run logging
	Logger *zerolog.Logger

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Engine computes envelope budget tables from a ledger. An Engine is
// stateless between runs and safe for concurrent use.
type Engine struct {
	startDate      *Date
	futureMonths   int
	futureRollover bool
	showReal       bool
	today          Date
	prices         PriceSource
	log            zerolog.Logger
}

// New creates an Engine from the given options
func New(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = &Options{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}
		if err := sentry.Init(sentryOpts); err != nil {
			return nil, errors.Wrap(err, "failed to initialize sentry")
		}
	}

	e := &Engine{
		startDate:      opts.StartDate,
		futureMonths:   opts.FutureMonths,
		futureRollover: true,
		showReal:       opts.ShowRealAccounts,
		today:          opts.Today,
		prices:         opts.Prices,
		log:            zerolog.Nop(),
	}
	if opts.FutureMonths == 0 {
		e.futureMonths = DefaultFutureMonths
	} else if opts.FutureMonths < 0 {
		e.futureMonths = 0
	}
	if opts.FutureRollover != nil {
		e.futureRollover = *opts.FutureRollover
	}
	if opts.Prices == nil {
		e.prices = NoPrices{}
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}

	return e, nil
}

// Result is the outcome of one computation run: the month sequence, the
// income summary, the envelope table, the raw activity and the goal
// tables, plus every diagnostic collected along the way.
type Result struct {
	RunID        uuid.UUID
	Currency     string
	Months       []Month
	CurrentMonth Month

	Summary  *IncomeSummary
	Buckets  *BucketTable
	Activity *ActivityTable
	Targets  *TargetTables

	Diagnostics []Diagnostic

	bucketAccounts map[string][]string
	showReal       bool
}

// PeriodView assembles the presentation rows for one month of the result.
// ErrMonthOutOfRange is returned when the month is not part of the
// computed period.
func (r *Result) PeriodView(month Month, showReal bool) (*PeriodView, error) {
	found := false
	for _, m := range r.Months {
		if m == month {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Wrap(ErrMonthOutOfRange, month.String())
	}
	return assemblePeriodView(month, showReal, r.Buckets, r.Activity, r.Targets, r.bucketAccounts), nil
}

// CurrentView assembles the view for the result's current month with the
// engine's default account visibility.
func (r *Result) CurrentView() (*PeriodView, error) {
	return r.PeriodView(r.CurrentMonth, r.showReal)
}

// Compute runs the full pipeline over the ledger. Per-item problems
// degrade to diagnostics; a panic anywhere in the computation is recovered
// into an empty result so a bad ledger can never take the caller down.
func (e *Engine) Compute(ctx context.Context, ledger *Ledger) (result *Result, err error) {
	runID := uuid.New()
	log := e.log.With().Str("run_id", runID.String()).Logger()
	ds := &diagnostics{}

	defer func() {
		if rec := recover(); rec != nil {
			sentry.CurrentHub().Recover(rec)
			sentry.Flush(2 * time.Second)
			ds.errorf("engine", ErrComputationFailed, "recovered from panic: %v", rec)
			log.Error().Interface("panic", rec).Msg("computation failed, returning empty result")
			result = e.emptyResult(runID, ds)
			err = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ledger == nil {
		ds.errorf("engine", ErrComputationFailed, "no ledger supplied")
		return e.emptyResult(runID, ds), nil
	}

	cfg := ParseConfig(ledger.Directives, ds)

	today := e.today.Time
	if today.IsZero() {
		today = time.Now().UTC()
	}

	start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if e.startDate != nil {
		start = e.startDate.Time
	}
	end := cfg.MaxAllocationDate
	if end.IsZero() {
		end = today
	}
	end = end.AddDate(0, e.futureMonths, 0)
	if end.Before(start) {
		ds.warnf("engine", nil, "period end %s before start %s, clamping",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
		end = start
	}

	months := MonthRange(MonthOf(start), MonthOf(end))
	currentIdx := 0
	for i, m := range months {
		if !m.After(MonthOf(today)) {
			currentIdx = i
		}
	}

	log.Debug().
		Str("start", months[0].String()).
		Str("end", months[len(months)-1].String()).
		Str("current", months[currentIdx].String()).
		Int("transactions", len(ledger.Transactions)).
		Msg("computing envelope tables")

	activity := computeActivity(ledger, cfg, e.prices, start, end, ds)
	opening := startingBalance(ledger, cfg, e.prices, start)
	table, summary := computeRollover(months, currentIdx, e.futureRollover, activity, cfg.Allocations, opening)
	targets := computeTargets(cfg.Goals, table, months, currentIdx)

	bucketAccounts := make(map[string][]string)
	var unmatched []string
	for _, key := range activity.Rows() {
		bucketAccounts[key.Bucket] = appendUnique(bucketAccounts[key.Bucket], key.Account)
		if key.Bucket == key.Account && !isIncomeBucket(key.Bucket) {
			unmatched = appendUnique(unmatched, key.Account)
		}
	}
	if len(unmatched) > 0 {
		ds.warnf("mapper", nil, "accounts matched no mapping rule: %v", unmatched)
	}

	for i := range ds.items {
		d := &ds.items[i]
		evt := log.Warn()
		if d.Severity == SeverityError {
			evt = log.Error()
		}
		evt.Str("source", d.Source).Msg(d.Message)
	}

	return &Result{
		RunID:          runID,
		Currency:       cfg.Currency,
		Months:         months,
		CurrentMonth:   months[currentIdx],
		Summary:        summary,
		Buckets:        table,
		Activity:       activity,
		Targets:        targets,
		Diagnostics:    ds.items,
		bucketAccounts: bucketAccounts,
		showReal:       e.showReal,
	}, nil
}

// ComputeFrom loads the ledger from a source and computes it.
func (e *Engine) ComputeFrom(ctx context.Context, source LedgerSource) (*Result, error) {
	ledger, err := source.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ledger")
	}
	return e.Compute(ctx, ledger)
}

// emptyResult is the degraded outcome after a recovered failure: valid,
// empty tables that every accessor can still be called on.
func (e *Engine) emptyResult(runID uuid.UUID, ds *diagnostics) *Result {
	month := MonthOf(time.Now().UTC())
	if !e.today.Time.IsZero() {
		month = e.today.Month()
	}
	months := []Month{month}

	table, summary := computeRollover(months, 0, e.futureRollover, newActivityTable(), nil, decimal.Decimal{})
	return &Result{
		RunID:          runID,
		Currency:       DefaultCurrency,
		Months:         months,
		CurrentMonth:   month,
		Summary:        summary,
		Buckets:        table,
		Activity:       newActivityTable(),
		Targets:        newTargetTables(),
		Diagnostics:    ds.items,
		bucketAccounts: map[string][]string{},
		showReal:       e.showReal,
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
