// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pingcap/stmtexec/lib/util/waitgroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

const (
	ModuleStmtExec = "stmtexec"
)

// metrics labels.
const (
	LabelStmt = "stmt"
)

var registerOnce sync.Once

// RegisterStmtMetrics registers the metrics of this module and the Go runtime.
// It's safe to call it more than once.
func RegisterStmtMetrics() {
	registerOnce.Do(func() {
		prometheus.DefaultRegisterer.Unregister(collectors.NewGoCollector())
		prometheus.MustRegister(collectors.NewGoCollector(collectors.WithGoCollections(collectors.GoRuntimeMetricsCollection | collectors.GoRuntimeMemStatsCollection)))
		for _, c := range stmtCollectors() {
			prometheus.MustRegister(c)
		}
	})
}

// PushMetrics pushes the registered metrics to a Prometheus Pushgateway once.
func PushMetrics(ctx context.Context, addr, job string, lg *zap.Logger) error {
	if len(addr) == 0 {
		return nil
	}
	pusher := push.New(addr, job).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instanceName())
	if err := pusher.PushContext(ctx); err != nil {
		lg.Error("could not push metrics to prometheus pushgateway", zap.String("addr", addr), zap.Error(err))
		return err
	}
	lg.Info("pushed metrics", zap.String("addr", addr), zap.String("job", job))
	return nil
}

// Pusher pushes the registered metrics in background until it's closed.
type Pusher struct {
	wg     waitgroup.WaitGroup
	cancel context.CancelFunc
	addr   string
	job    string
	lg     *zap.Logger
}

// StartPusher starts pushing every interval. It returns nil when addr is empty.
func StartPusher(ctx context.Context, addr, job string, interval time.Duration, lg *zap.Logger) *Pusher {
	if len(addr) == 0 || interval <= 0 {
		return nil
	}
	childCtx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		cancel: cancel,
		addr:   addr,
		job:    job,
		lg:     lg,
	}
	lg.Info("start prometheus push client", zap.String("addr", addr), zap.Duration("interval", interval))
	p.wg.RunWithRecover(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-childCtx.Done():
				return
			case <-ticker.C:
				_ = PushMetrics(childCtx, p.addr, p.job, p.lg)
			}
		}
	}, nil, lg)
	return p
}

// Close stops the background loop and pushes the final values once.
func (p *Pusher) Close() error {
	if p == nil {
		return nil
	}
	p.cancel()
	p.wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return PushMetrics(ctx, p.addr, p.job, p.lg)
}

func instanceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%s_%d", hostname, os.Getpid())
}

// Collect gathers all the metrics of the collector. It is only used for testing.
func Collect(coll prometheus.Collector) ([]*dto.Metric, error) {
	ch := make(chan prometheus.Metric)
	go func() {
		coll.Collect(ch)
		close(ch)
	}()
	results := make([]*dto.Metric, 0)
	for m := range ch {
		var metric dto.Metric
		if err := m.Write(&metric); err != nil {
			// drain the channel so that the goroutine exits
			for range ch {
			}
			return nil, err
		}
		results = append(results, &metric)
	}
	return results, nil
}

// ReadCounter reads the value from the counter. It is only used for testing.
func ReadCounter(counter prometheus.Counter) (int, error) {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return 0, err
	}
	return int(metric.Counter.GetValue()), nil
}

// ReadHistogramCount reads the sample count of the histogram. It is only used for testing.
func ReadHistogramCount(observer prometheus.Observer) (uint64, error) {
	histogram, ok := observer.(prometheus.Histogram)
	if !ok {
		return 0, fmt.Errorf("%T is not a histogram", observer)
	}
	var metric dto.Metric
	if err := histogram.Write(&metric); err != nil {
		return 0, err
	}
	return metric.Histogram.GetSampleCount(), nil
}

// SinceSeconds is the elapsed time of start in seconds, for histograms.
func SinceSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}
