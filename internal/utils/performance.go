package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration above which OperationTimer warns.
// Analytics recompute from the ledger on every call, so anything over a
// second on a single portfolio deserves attention.
const SlowOperationThreshold = time.Second

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func (s *Service) PortfolioAnalytics(...) {
//	    defer utils.OperationTimer("portfolio_analytics", s.log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > SlowOperationThreshold {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}

		return duration
	}
}
