package loadtest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/welltest/pkg/logger"
)

// submitRecords posts every body to /detect using a pool of workers. The
// result slice is indexed like bodies; failed records stay nil.
func submitRecords(ctx context.Context, config *Config, bodies [][]byte, stats *Stats) []*Detection {
	log := logger.Get()
	log.Info(ctx, "submitting records", logger.Int("records", len(bodies)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/detect"
	results := make([]*Detection, len(bodies))

	var (
		successful int64
		failed     int64
		submitted  int64
		lastReport atomic.Int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				det, err := submitSingleRecord(ctx, client, url, bodies[index])
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "detect failed", logger.Int("record", index), logger.Error(err))
					}
				} else {
					det.Index = index
					results[index] = det
					atomic.AddInt64(&successful, 1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "detect progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(bodies)),
						logger.Int("successful", int(atomic.LoadInt64(&successful))),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range bodies {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.DetectSubmitted = int(atomic.LoadInt64(&submitted))
	stats.DetectSuccessful = int(atomic.LoadInt64(&successful))
	stats.DetectFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "detect submission completed",
		logger.Int("successful", stats.DetectSuccessful),
		logger.Int("failed", stats.DetectFailed))
	return results
}

func submitSingleRecord(ctx context.Context, client *HTTPClient, url string, body []byte) (*Detection, error) {
	resp, err := client.Post(ctx, url, "text/csv", body)
	if err != nil {
		return nil, err
	}
	var det Detection
	if err := decodeOK(resp, &det); err != nil {
		return nil, err
	}
	return &det, nil
}
