package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"wrapped/internal/amqp"
	"wrapped/internal/cache"
	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source"
)

// AllYearsLabel names the recap covering every year.
const AllYearsLabel = "ALL YEARS"

// Recap is the summary of one year, or of all years when Year is core.AllYears.
// A nil Summary means there is nothing to show for that selection.
type Recap struct {
	Year    int           `json:"year"`
	Label   string        `json:"label"`
	Summary *core.Summary `json:"summary"`
}

// Empty reports whether the recap has no orders.
func (r *Recap) Empty() bool { return r == nil || r.Summary == nil }

// LabelFor returns "2024" for a year and AllYearsLabel for core.AllYears.
func LabelFor(year int) string {
	if year == core.AllYears {
		return AllYearsLabel
	}
	return strconv.Itoa(year)
}

// Publisher delivers computed recaps downstream.
type Publisher interface {
	PublishRecap(ctx context.Context, msg *amqp.RecapMessage) error
}

var _ Publisher = (*amqp.Client)(nil)

// RecapService reads the order history once and serves recaps from it.
type RecapService struct {
	reader     source.RowReader
	normalizer core.Normalizer
	cache      *cache.LRU[int, *Recap]
	publisher  Publisher
	limiter    *rate.Limiter
	logger     *log.Logger

	mu     sync.Mutex
	items  []core.LineItem
	loaded bool
}

type Option func(*RecapService)

// WithLocation sets the zone timestamps are interpreted and bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(s *RecapService) { s.normalizer.Location = loc }
}

func WithCache(c *cache.LRU[int, *Recap]) Option {
	return func(s *RecapService) { s.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *RecapService) { s.publisher = p }
}

// WithPublishRate caps PublishAll at perSecond messages per second.
// Zero or negative leaves publishing unthrottled.
func WithPublishRate(perSecond float64) Option {
	return func(s *RecapService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *RecapService) { s.logger = l }
}

func NewRecapService(reader source.RowReader, opts ...Option) *RecapService {
	s := &RecapService{reader: reader}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentRecap)
	if s.cache == nil {
		s.cache = cache.NewLRU[int, *Recap](32, 0)
	}
	return s
}

// Load reads and normalizes the order history on first use.
func (s *RecapService) Load(ctx context.Context) ([]core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.items, nil
	}
	if s.reader == nil {
		return nil, errors.New("no order history source configured")
	}

	start := time.Now()
	rows, err := s.reader.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read order history: %w", err)
	}
	items, report := s.normalizer.NormalizeWithReport(rows)

	fields := log.NewFields().
		WithOperation(log.OpLoad).
		WithNormalize(report.Rows, report.Kept, report.Dropped)
	if d, ok := s.reader.(source.Describer); ok {
		fields[log.FieldSource] = d.Describe()
	}
	fields[log.FieldDuration] = time.Since(start).Milliseconds()
	if report.Dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped rows with unparseable timestamps", fields.ToSlice()...)
	} else {
		s.logger.InfoContext(ctx, "Order history loaded", fields.ToSlice()...)
	}

	s.items, s.loaded = items, true
	return items, nil
}

// Reset forgets the loaded history and every cached recap.
func (s *RecapService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items, s.loaded = nil, false
	s.cache.Purge()
}

// Years lists the years present in the history with their order counts, newest first.
func (s *RecapService) Years(ctx context.Context) ([]core.YearCount, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return core.YearCounts(items), nil
}

// Items returns the line items of year, or all of them for core.AllYears.
func (s *RecapService) Items(ctx context.Context, year int) ([]core.LineItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByYear(items, year), nil
}

// Recap computes (or returns the cached) recap for year.
func (s *RecapService) Recap(ctx context.Context, year int) (*Recap, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, hit, err := s.cache.GetOrCompute(year, func() (*Recap, error) {
		return &Recap{
			Year:    year,
			Label:   LabelFor(year),
			Summary: core.CalculateStats(core.FilterByYear(items, year)),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Recap ready",
		log.FieldYear, r.Label, log.FieldCacheHit, hit, "empty", r.Empty())
	return r, nil
}

// RecapAll computes one recap per available year, newest first, followed
// by the all-years recap.
func (s *RecapService) RecapAll(ctx context.Context) ([]*Recap, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	years := append(core.AvailableYears(items), core.AllYears)

	out := make([]*Recap, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			r, err := s.Recap(gctx, year)
			if err != nil {
				return fmt.Errorf("recap %s: %w", LabelFor(year), err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish sends r to the configured publisher. Without one it only logs.
func (s *RecapService) Publish(ctx context.Context, r *Recap) error {
	if r == nil {
		return errors.New("nil recap")
	}
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP publisher not available, skipping recap message", log.FieldYear, r.Label)
		return nil
	}
	msg := amqp.NewRecapMessage(r.Year, r.Label, r.Summary)
	if err := s.publisher.PublishRecap(ctx, msg); err != nil {
		return fmt.Errorf("publish recap %s: %w", r.Label, err)
	}
	return nil
}

// PublishAll publishes every non-empty recap in order, throttled by the
// publish rate. Failures do not stop the remaining recaps; they are joined
// into the returned error.
func (s *RecapService) PublishAll(ctx context.Context, recaps []*Recap) (int, error) {
	var (
		sent int
		errs []error
	)
	for _, r := range recaps {
		if r.Empty() {
			continue
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				errs = append(errs, fmt.Errorf("publish rate: %w", err))
				break
			}
		}
		if err := s.Publish(ctx, r); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish recap",
				log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Close releases the publisher when it holds a connection.
func (s *RecapService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close recap service: amqp: %w", err)
		}
	}
	return nil
}
