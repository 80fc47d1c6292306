package gateway

import "fmt"

// Level classifies a status display for the header indicator.
type Level int

const (
	LevelNeutral Level = iota
	LevelGood
	LevelBad
)

// Display maps a status response to one of the four mutually exclusive
// readiness displays: reindexing in progress, ready with counts, dataset
// loaded but index not ready, or dataset missing. Transport failures never
// reach here; the caller maps those to the backend-unavailable display.
func (s *StatusResponse) Display() (Level, string) {
	switch {
	case s.Reindexing:
		return LevelNeutral, "Reindexing dataset..."
	case !s.DatasetLoaded:
		return LevelBad, "Dataset not loaded."
	case s.RAGReady != nil && !*s.RAGReady:
		return LevelNeutral, "Dataset loaded. Retrieval index not ready."
	default:
		return LevelGood, fmt.Sprintf("Ready. %d records, %d indexed chunks.",
			s.Records, s.IndexedChunks)
	}
}

// UnavailableDisplay is the status shown when the poll itself fails.
func UnavailableDisplay() (Level, string) {
	return LevelBad, "Backend unavailable."
}
