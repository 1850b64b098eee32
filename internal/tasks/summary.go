package tasks

import "github.com/desertthunder/listsync/internal/models"

// Summary accumulates per-item results into a [models.SyncSummary].
//
// Every recorded item lands in exactly one of added, alreadyInList or notFound.
type Summary struct {
	counts models.SyncSummary
}

// Record counts one item by its disposition and, for ToAdd items, its apply outcome.
//
// A duplicate rejection counts as already in the list. A failed addition counts as
// not found and is also tallied in Failed.
func (s *Summary) Record(disposition models.Disposition, outcome models.Outcome) {
	switch disposition {
	case models.AlreadyPresent:
		s.counts.AlreadyInList++
	case models.ToAdd:
		switch outcome {
		case models.Added:
			s.counts.Added++
		case models.Skipped:
			s.counts.AlreadyInList++
		case models.Failed:
			s.counts.NotFound++
			s.counts.Failed++
		default:
			s.counts.NotFound++
		}
	default:
		s.counts.NotFound++
	}
}

// Render returns the totals recorded so far. The returned value is a copy.
func (s *Summary) Render() models.SyncSummary {
	return s.counts
}
