package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

const instrumentationName = "github.com/philipswan/TetheredRing-sub000/internal/engine"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	assigned  metric.Int64Counter
	released  metric.Int64Counter
	shortage  metric.Int64Counter
	discarded metric.Int64Counter
	migrated  metric.Int64Counter
	invalid   metric.Int64Counter
	duration  metric.Float64Histogram
	free      metric.Int64ObservableGauge
}

// newMetrics creates the engine instruments on the global meter provider,
// which is a no-op until one is installed.
func newMetrics(e *Engine) (*metrics, error) {
	m := meter()
	ms := &metrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&ms.assigned, "ringstream.models.assigned", "Models attached to objects"},
		{&ms.released, "ringstream.models.released", "Models returned from objects"},
		{&ms.shortage, "ringstream.models.shortage", "Assignments that found no model"},
		{&ms.discarded, "ringstream.objects.discarded", "Moving objects that left their trajectory"},
		{&ms.migrated, "ringstream.objects.migrated", "Moving objects that changed zone"},
		{&ms.invalid, "ringstream.objects.invalid", "Objects skipped for an invalid frame position"},
	}
	var err error
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	ms.duration, err = m.Float64Histogram(
		"ringstream.tick.duration",
		metric.WithDescription("Wall time spent in one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	ms.free, err = m.Int64ObservableGauge(
		"ringstream.pool.free",
		metric.WithDescription("Unassigned models per class"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pool gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			for _, p := range e.Status().Pools {
				o.ObserveInt64(ms.free, int64(p.Free),
					metric.WithAttributes(attribute.String("class", string(p.Class))))
			}
			return nil
		},
		ms.free,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pool callback: %w", err)
	}

	return ms, nil
}

func (ms *metrics) record(rec core.TickRecord) {
	ctx := context.Background()
	for _, ct := range rec.Classes {
		attrs := metric.WithAttributes(attribute.String("class", string(ct.Class)))
		add(ctx, ms.assigned, ct.Assigned, attrs)
		add(ctx, ms.released, ct.Released, attrs)
		add(ctx, ms.shortage, ct.Shortage, attrs)
		add(ctx, ms.discarded, ct.Discarded, attrs)
		add(ctx, ms.migrated, ct.Migrated, attrs)
	}
	add(ctx, ms.invalid, rec.Invalid)
	ms.duration.Record(ctx, float64(rec.Duration.Microseconds())/1000)
}

func add(ctx context.Context, c metric.Int64Counter, n int, opts ...metric.AddOption) {
	if n > 0 {
		c.Add(ctx, int64(n), opts...)
	}
}
