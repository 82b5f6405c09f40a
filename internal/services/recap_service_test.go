package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapped/internal/amqp"
	"wrapped/internal/core"
	"wrapped/internal/source/memory"
)

func row(created, store, item, subtotal string) core.RawRow {
	ts, _ := time.Parse(time.DateTime, created)
	return core.RawRow{
		core.ColCreatedAt:    created,
		core.ColDeliveryTime: ts.Add(25 * time.Minute).Format(time.DateTime),
		core.ColStoreName:    store,
		core.ColItem:         item,
		core.ColCategory:     "Mains",
		core.ColUnitPrice:    subtotal,
		core.ColQuantity:     "1",
		core.ColSubtotal:     subtotal,
	}
}

func history() *memory.Store {
	return memory.New(
		row("2023-06-01 12:00:00", "Taco Stand", "Taco", "8.00"),
		row("2024-01-05 19:00:00", "Pizza Place", "Margherita", "12.00"),
		row("2024-01-05 19:00:00", "Pizza Place", "Soda", "3.00"),
		row("2024-02-10 20:00:00", "Noodle Bar", "Ramen", "15.00"),
		core.RawRow{core.ColCreatedAt: "not a date", core.ColDeliveryTime: "2024-01-01 10:00:00"},
	)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.RecapMessage
	err  error
}

func (p *recordingPublisher) PublishRecap(_ context.Context, msg *amqp.RecapMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestRecapServiceLoadIsMemoized(t *testing.T) {
	store := history()
	svc := NewRecapService(store, WithLocation(time.UTC))

	items, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4, "the row with a bad timestamp is dropped")

	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Reads())

	svc.Reset()
	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Reads())
}

func TestRecapServiceLoadError(t *testing.T) {
	store := memory.New()
	store.FailWith(errors.New("disk on fire"))
	svc := NewRecapService(store)

	_, err := svc.Recap(context.Background(), 2024)
	assert.ErrorContains(t, err, "disk on fire")

	_, err = NewRecapService(nil).Load(context.Background())
	assert.Error(t, err)
}

func TestRecapServiceYears(t *testing.T) {
	svc := NewRecapService(history(), WithLocation(time.UTC))
	years, err := svc.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.YearCount{{Year: 2024, Orders: 2}, {Year: 2023, Orders: 1}}, years)
}

func TestRecapServiceRecap(t *testing.T) {
	svc := NewRecapService(history(), WithLocation(time.UTC))

	r, err := svc.Recap(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "2024", r.Label)
	require.NotNil(t, r.Summary)
	assert.Equal(t, 2, r.Summary.TotalOrders)
	assert.Equal(t, "30", r.Summary.TotalSpent.String())

	again, err := svc.Recap(context.Background(), 2024)
	require.NoError(t, err)
	assert.Same(t, r, again, "second call is served from cache")

	all, err := svc.Recap(context.Background(), core.AllYears)
	require.NoError(t, err)
	assert.Equal(t, AllYearsLabel, all.Label)
	assert.Equal(t, 3, all.Summary.TotalOrders)

	none, err := svc.Recap(context.Background(), 1999)
	require.NoError(t, err)
	assert.True(t, none.Empty())
}

func TestRecapServiceRecapAll(t *testing.T) {
	svc := NewRecapService(history(), WithLocation(time.UTC))
	recaps, err := svc.RecapAll(context.Background())
	require.NoError(t, err)

	labels := make([]string, len(recaps))
	for i, r := range recaps {
		labels[i] = r.Label
	}
	assert.Equal(t, []string{"2024", "2023", AllYearsLabel}, labels)
	assert.Equal(t, 1, recaps[1].Summary.TotalOrders)
}

func TestRecapServiceRecapAllEmpty(t *testing.T) {
	svc := NewRecapService(memory.New())
	recaps, err := svc.RecapAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recaps, 1)
	assert.True(t, recaps[0].Empty())
}

func TestRecapServiceCancelled(t *testing.T) {
	svc := NewRecapService(history())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Recap(ctx, 2024)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecapServicePublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewRecapService(history(), WithLocation(time.UTC), WithPublisher(pub))

	r, err := svc.Recap(context.Background(), 2023)
	require.NoError(t, err)
	require.NoError(t, svc.Publish(context.Background(), r))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, 2023, pub.msgs[0].Year)
	assert.Equal(t, "2023", pub.msgs[0].Label)
	assert.NotEmpty(t, pub.msgs[0].ID)

	pub.err = errors.New("broker down")
	assert.ErrorContains(t, svc.Publish(context.Background(), r), "broker down")
	assert.Error(t, svc.Publish(context.Background(), nil))
}

func TestRecapServicePublishWithoutPublisher(t *testing.T) {
	svc := NewRecapService(history())
	assert.NoError(t, svc.Publish(context.Background(), &Recap{Year: 2024, Label: "2024"}))
	assert.NoError(t, svc.Close())
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, AllYearsLabel, LabelFor(core.AllYears))
	assert.Equal(t, "2021", LabelFor(2021))
}

func TestRecapServicePublishAll(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewRecapService(history(), WithLocation(time.UTC), WithPublisher(pub), WithPublishRate(1000))

	recaps, err := svc.RecapAll(context.Background())
	require.NoError(t, err)
	recaps = append(recaps, &Recap{Year: 1999, Label: "1999"})

	sent, err := svc.PublishAll(context.Background(), recaps)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	require.Len(t, pub.msgs, 3)
	assert.Equal(t, AllYearsLabel, pub.msgs[2].Label)
}

func TestRecapServicePublishAllJoinsErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewRecapService(history(), WithLocation(time.UTC), WithPublisher(pub))

	recaps, err := svc.RecapAll(context.Background())
	require.NoError(t, err)
	sent, err := svc.PublishAll(context.Background(), recaps)
	assert.Zero(t, sent)
	assert.ErrorContains(t, err, "publish recap 2024: broker down")
	assert.ErrorContains(t, err, "publish recap ALL YEARS: broker down")
}

func TestRecapServicePublishAllCancelled(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewRecapService(history(), WithPublisher(pub), WithPublishRate(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sent, err := svc.PublishAll(ctx, []*Recap{{Label: "2024", Summary: &core.Summary{}}})
	assert.Zero(t, sent)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.msgs)
}
