package service

import (
	"github.com/okian/welltest/internal/adapters/repository"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/scoring"
	"github.com/okian/welltest/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithParams sets the default detector parameters.
func WithParams(p detect.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithScoring sets the default scorer options.
func WithScoring(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoreOpts = append([]scoring.Option(nil), opts...)
	}
}

// WithSource sets where queued jobs load their records from.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore replaces the in-memory result store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the in-flight file cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
