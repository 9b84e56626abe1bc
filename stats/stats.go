// Package stats keeps the history of finished sessions. Old sessions are
// folded into aggregate records so the file stays small.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GroupSize is the number of records folded into one aggregate
const GroupSize = 100

// GameRecord is a single session (CompressionIndex 0) or an aggregate of
// GamesCount sessions.
type GameRecord struct {
	ID               string    `json:"id"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Score            int       `json:"score"`
	Length           int       `json:"length"`
	CompressionIndex int       `json:"compressionIndex"`
	GamesCount       int       `json:"gamesCount"`
	AverageScore     float64   `json:"averageScore"`
	MedianScore      float64   `json:"medianScore"`
	MaxScore         int       `json:"maxScore"`
	MinScore         int       `json:"minScore"`
	AverageDuration  float64   `json:"averageDuration"`
	MaxDuration      float64   `json:"maxDuration"`
	MinDuration      float64   `json:"minDuration"`
}

// Summary aggregates the whole history
type Summary struct {
	GamesPlayed     int     `json:"gamesPlayed"`
	AverageScore    float64 `json:"averageScore"`
	MedianScore     float64 `json:"medianScore"`
	MaxScore        int     `json:"maxScore"`
	AverageDuration float64 `json:"averageDuration"`
	MaxDuration     float64 `json:"maxDuration"`
}

type GameStats struct {
	mu       sync.RWMutex
	games    []GameRecord
	filename string
}

// NewGameStats loads the history from filename. An empty filename keeps the
// history in memory only.
func NewGameStats(filename string) (*GameStats, error) {
	s := &GameStats{filename: filename}
	if filename == "" {
		return s, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}
	if err := json.Unmarshal(data, &s.games); err != nil {
		return nil, fmt.Errorf("failed to parse stats file %s: %w", filename, err)
	}
	return s, nil
}

// AddGame records a finished session and returns its id
func (s *GameStats) AddGame(sessionID string, score, length int, start, end time.Time) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	d := end.Sub(start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = append(s.games, GameRecord{
		ID:              sessionID,
		StartTime:       start,
		EndTime:         end,
		Score:           score,
		Length:          length,
		GamesCount:      1,
		AverageScore:    float64(score),
		MedianScore:     float64(score),
		MaxScore:        score,
		MinScore:        score,
		AverageDuration: d,
		MaxDuration:     d,
		MinDuration:     d,
	})
	s.groupGames()
	return sessionID
}

// groupGames folds every full run of GroupSize records of one level into a
// record of the next level, cascading upwards.
func (s *GameStats) groupGames() {
	sort.SliceStable(s.games, func(i, j int) bool {
		if s.games[i].CompressionIndex != s.games[j].CompressionIndex {
			return s.games[i].CompressionIndex < s.games[j].CompressionIndex
		}
		return s.games[i].StartTime.Before(s.games[j].StartTime)
	})

	for level := 0; ; level++ {
		var same, rest []GameRecord
		for _, g := range s.games {
			if g.CompressionIndex == level {
				same = append(same, g)
			} else {
				rest = append(rest, g)
			}
		}
		if len(same) < GroupSize {
			return
		}

		var folded []GameRecord
		for len(same) >= GroupSize {
			folded = append(folded, compress(same[:GroupSize], level+1))
			same = same[GroupSize:]
		}
		s.games = append(append(rest, same...), folded...)
	}
}

func compress(group []GameRecord, level int) GameRecord {
	out := GameRecord{
		ID:               uuid.NewString(),
		StartTime:        group[0].StartTime,
		EndTime:          group[0].EndTime,
		CompressionIndex: level,
		MaxScore:         group[0].MaxScore,
		MinScore:         group[0].MinScore,
		MaxDuration:      group[0].MaxDuration,
		MinDuration:      group[0].MinDuration,
	}

	var totalScore, totalDuration float64
	var medians []float64
	for _, g := range group {
		out.MaxScore = max(out.MaxScore, g.MaxScore)
		out.MinScore = min(out.MinScore, g.MinScore)
		out.MaxDuration = max(out.MaxDuration, g.MaxDuration)
		out.MinDuration = min(out.MinDuration, g.MinDuration)
		if g.StartTime.Before(out.StartTime) {
			out.StartTime = g.StartTime
		}
		if g.EndTime.After(out.EndTime) {
			out.EndTime = g.EndTime
		}
		totalScore += g.AverageScore * float64(g.GamesCount)
		totalDuration += g.AverageDuration * float64(g.GamesCount)
		out.GamesCount += g.GamesCount
		for i := 0; i < g.GamesCount; i++ {
			medians = append(medians, g.MedianScore)
		}
	}

	out.AverageScore = totalScore / float64(out.GamesCount)
	out.AverageDuration = totalDuration / float64(out.GamesCount)
	out.MedianScore = median(medians)
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	n := len(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}

// Records returns a copy of the stored records
func (s *GameStats) Records() []GameRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GameRecord, len(s.games))
	copy(out, s.games)
	return out
}

// Recent returns up to n of the latest single-session records, oldest first
func (s *GameStats) Recent(n int) []GameRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var singles []GameRecord
	for _, g := range s.games {
		if g.CompressionIndex == 0 {
			singles = append(singles, g)
		}
	}
	if len(singles) > n {
		singles = singles[len(singles)-n:]
	}
	return singles
}

func (s *GameStats) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	if len(s.games) == 0 {
		return sum
	}

	var totalScore, totalDuration float64
	var medians []float64
	for _, g := range s.games {
		sum.GamesPlayed += g.GamesCount
		totalScore += g.AverageScore * float64(g.GamesCount)
		totalDuration += g.AverageDuration * float64(g.GamesCount)
		sum.MaxScore = max(sum.MaxScore, g.MaxScore)
		sum.MaxDuration = max(sum.MaxDuration, g.MaxDuration)
		for i := 0; i < g.GamesCount; i++ {
			medians = append(medians, g.MedianScore)
		}
	}
	sum.AverageScore = totalScore / float64(sum.GamesPlayed)
	sum.AverageDuration = totalDuration / float64(sum.GamesPlayed)
	sum.MedianScore = median(medians)
	return sum
}

// Save writes the history as JSON. It is a no-op for in-memory stats.
func (s *GameStats) Save() error {
	if s.filename == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.Marshal(s.games)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
