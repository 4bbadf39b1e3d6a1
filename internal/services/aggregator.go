package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// ReportStore is the slice of the persistence layer the aggregator needs.
// Implemented by database.ReportRepository.
type ReportStore interface {
	// FetchReports returns reports for a station in [from, to], ascending
	// by timestamp then by ingestion order.
	FetchReports(ctx context.Context, stationID int64, from, to time.Time) ([]models.Report, error)
}

// Aggregator reduces raw station reports into a dense, bucketed series.
// Empty interior buckets are linearly interpolated from their nearest
// non-empty neighbors; empty boundary buckets carry the nearest known
// value, so the predictor always receives one point per bucket.
type Aggregator struct {
	store  ReportStore
	logger *logrus.Entry
}

func NewAggregator(store ReportStore, logger *logging.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.WithComponent("aggregator"),
	}
}

// Window aggregates reports for stationID over [from, to] into buckets of
// bucketSize. The result has exactly one point per bucket, ascending.
// Returns ErrInvalidRange for degenerate windows, ErrInsufficientData when
// the whole window holds no raw reports, and ErrStoreUnavailable when the
// store cannot be reached after a retry.
func (a *Aggregator) Window(ctx context.Context, stationID int64, from, to time.Time, bucketSize time.Duration) ([]models.AggregatedPoint, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from %s is not before to %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	if bucketSize <= 0 {
		return nil, fmt.Errorf("%w: bucket size %s", ErrInvalidRange, bucketSize)
	}

	reports, err := a.fetchWithRetry(ctx, stationID, from, to)
	if err != nil {
		return nil, err
	}

	reports = dedupe(reports)

	numBuckets := int((to.Sub(from) + bucketSize - 1) / bucketSize)
	points := make([]models.AggregatedPoint, numBuckets)
	sums := make([]float64, numBuckets)

	for i := range points {
		points[i] = models.AggregatedPoint{
			StationID: stationID,
			Timestamp: from.Add(time.Duration(i) * bucketSize),
		}
	}

	// Bucket by event timestamp; arrival order is irrelevant here.
	for _, r := range reports {
		if r.PM25 == nil {
			continue
		}
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		idx := int(r.Timestamp.Sub(from) / bucketSize)
		if idx >= numBuckets {
			idx = numBuckets - 1
		}
		sums[idx] += *r.PM25
		points[idx].SampleCount++
	}

	hasSamples := false
	for i := range points {
		if points[i].SampleCount > 0 {
			points[i].Value = sums[i] / float64(points[i].SampleCount)
			hasSamples = true
		}
	}
	if !hasSamples {
		return nil, fmt.Errorf("%w: station %d, window %s to %s", ErrInsufficientData, stationID,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	fillGaps(points)

	a.logger.WithFields(logrus.Fields{
		"station_id": stationID,
		"buckets":    numBuckets,
		"reports":    len(reports),
	}).Debug("Aggregated window")

	return points, nil
}

// fetchWithRetry fetches from the store, retrying once with a short
// backoff on transient failure. Context cancellation is never retried.
func (a *Aggregator) fetchWithRetry(ctx context.Context, stationID int64, from, to time.Time) ([]models.Report, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond

	reports, err := backoff.Retry(ctx, func() ([]models.Report, error) {
		rs, fetchErr := a.store.FetchReports(ctx, stationID, from, to)
		if fetchErr != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			a.logger.WithError(fetchErr).Warn("Report store fetch failed, retrying")
			return nil, fetchErr
		}
		return rs, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(2))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return reports, nil
}

// dedupe collapses retransmissions sharing (station, timestamp, source),
// keeping the last received. Input order is fetch order (timestamp, then
// ingestion order), so overwriting preserves last-write-wins.
func dedupe(reports []models.Report) []models.Report {
	type key struct {
		stationID int64
		ts        int64
		source    string
	}

	seen := make(map[key]int, len(reports))
	out := reports[:0]
	for _, r := range reports {
		k := key{r.StationID, r.Timestamp.UnixNano(), r.Source}
		if i, ok := seen[k]; ok {
			out[i] = r
			continue
		}
		seen[k] = len(out)
		out = append(out, r)
	}
	return out
}

// fillGaps interpolates empty buckets in place. Interior gaps are linear
// between the surrounding non-empty buckets; boundary gaps carry the
// nearest known value flat. Callers guarantee at least one non-empty
// bucket.
func fillGaps(points []models.AggregatedPoint) {
	n := len(points)
	prev := -1
	for i := 0; i < n; i++ {
		if points[i].SampleCount > 0 {
			prev = i
			continue
		}

		next := -1
		for j := i + 1; j < n; j++ {
			if points[j].SampleCount > 0 {
				next = j
				break
			}
		}

		switch {
		case prev >= 0 && next >= 0:
			elapsed := points[next].Timestamp.Sub(points[prev].Timestamp).Seconds()
			offset := points[i].Timestamp.Sub(points[prev].Timestamp).Seconds()
			slope := (points[next].Value - points[prev].Value) / elapsed
			points[i].Value = points[prev].Value + slope*offset
		case prev >= 0:
			points[i].Value = points[prev].Value
		default:
			points[i].Value = points[next].Value
		}
		points[i].Interpolated = true
	}
}
