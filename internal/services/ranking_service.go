package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/metrics"
	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	statisticsTopN = 5
)

type RankingService interface {
	// RecordSession stores one complete ordering; positions must be exactly 1..N.
	RecordSession(ctx context.Context, userID, prompt string, entries []domain.RankedEntry) (domain.VotingSession, error)
	BuildRanking(order []domain.GeneratedImage) []domain.RankedEntry
	ComputeLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	// Export writes the ranking history under dir and returns the written paths.
	Export(ctx context.Context, dir, format string) ([]string, error)
}

type rankingService struct {
	repo   repository.RankingRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewRankingService(repo repository.RankingRepository, logger *slog.Logger, now func() time.Time) RankingService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &rankingService{repo: repo, logger: logger, now: now}
}

func (s *rankingService) RecordSession(ctx context.Context, userID, prompt string, entries []domain.RankedEntry) (domain.VotingSession, error) {
	if err := ValidateRanking(entries); err != nil {
		return domain.VotingSession{}, err
	}
	if strings.TrimSpace(userID) == "" {
		userID = domain.AnonymousUserID
	}
	at := s.now().UTC()
	session := domain.VotingSession{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Prompt:    strings.TrimSpace(prompt),
		CreatedAt: at,
	}
	rows := make([]domain.RankedEntry, len(entries))
	for i, e := range entries {
		e.RankingID = uuid.NewString()
		e.SessionID = session.SessionID
		e.CreatedAt = at
		rows[i] = e
	}
	if err := s.repo.CreateSession(ctx, session, rows); err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("database").Inc()
		return domain.VotingSession{}, fmt.Errorf("record session: %w", err)
	}
	metrics.VotingSessionsTotal.Inc()
	s.logger.Info("Rankings saved to database with session ID: "+session.SessionID, "entries", len(rows))
	return session, nil
}

// ValidateRanking rejects empty orderings, unnamed entries, and positions that are not a permutation of 1..N.
func ValidateRanking(entries []domain.RankedEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", domain.ErrInvalidRanking)
	}
	seen := make([]bool, len(entries)+1)
	for _, e := range entries {
		if strings.TrimSpace(e.ModelName) == "" {
			return fmt.Errorf("%w: entry without model name", domain.ErrInvalidRanking)
		}
		p := e.RankPosition
		if p < 1 || p > len(entries) || seen[p] {
			return fmt.Errorf("%w: positions must be a permutation of 1..%d", domain.ErrInvalidRanking, len(entries))
		}
		seen[p] = true
	}
	return nil
}

// BuildRanking ranks records in the given order, best first.
func (s *rankingService) BuildRanking(order []domain.GeneratedImage) []domain.RankedEntry {
	out := make([]domain.RankedEntry, 0, len(order))
	for i, rec := range order {
		out = append(out, domain.RankedEntry{
			ModelName:    rec.ModelName,
			ModelID:      rec.ModelID,
			RankPosition: i + 1,
		})
	}
	return out
}

// ResolveOrder maps generation names or arena labels to the matching records.
func ResolveOrder(records []domain.GeneratedImage, keys []string) ([]domain.GeneratedImage, error) {
	byKey := make(map[string]int, 2*len(records))
	for i, r := range records {
		byKey[r.Name] = i
		if r.Label != "" {
			byKey[r.Label] = i
		}
	}
	used := make(map[int]bool, len(keys))
	out := make([]domain.GeneratedImage, 0, len(keys))
	for _, k := range keys {
		i, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: unknown image %q", domain.ErrInvalidRanking, k)
		}
		if used[i] {
			return nil, fmt.Errorf("%w: %q ranked twice", domain.ErrInvalidRanking, k)
		}
		used[i] = true
		out = append(out, records[i])
	}
	return out, nil
}

func (s *rankingService) ComputeLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	positions, err := s.repo.Positions(ctx)
	if err != nil {
		return nil, err
	}
	return Leaderboard(positions), nil
}

// Leaderboard scores every model as (10 - mean rank) + 2 * first-place share,
// best first, ties by model name.
func Leaderboard(positions []repository.Position) []domain.LeaderboardEntry {
	per := aggregate(positions)
	out := make([]domain.LeaderboardEntry, 0, len(per))
	for _, m := range per {
		out = append(out, domain.LeaderboardEntry{
			ModelName:   m.ModelName,
			TotalVotes:  m.Votes,
			FirstPlaces: m.FirstPlaces,
			AvgRank:     m.MeanRank,
			Score:       m.Score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ModelName < out[j].ModelName
	})
	return out
}

func aggregate(positions []repository.Position) []domain.ModelRankStats {
	ranks := map[string][]float64{}
	var names []string
	for _, p := range positions {
		if _, ok := ranks[p.ModelName]; !ok {
			names = append(names, p.ModelName)
		}
		ranks[p.ModelName] = append(ranks[p.ModelName], float64(p.RankPosition))
	}
	sort.Strings(names)

	out := make([]domain.ModelRankStats, 0, len(names))
	for _, name := range names {
		data := stats.Float64Data(ranks[name])
		mean, _ := stats.Mean(data)
		median, _ := stats.Median(data)
		stddev, _ := stats.StandardDeviation(data)
		first := 0
		for _, r := range data {
			if r == 1 {
				first++
			}
		}
		out = append(out, domain.ModelRankStats{
			ModelName:   name,
			Votes:       len(data),
			MeanRank:    mean,
			MedianRank:  median,
			StdDevRank:  stddev,
			FirstPlaces: first,
			Score:       (10 - mean) + float64(first)/float64(len(data))*2,
		})
	}
	return out
}

func (s *rankingService) Statistics(ctx context.Context) (domain.Statistics, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	positions, err := s.repo.Positions(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	per := aggregate(positions)

	mostVoted := append([]domain.ModelRankStats(nil), per...)
	sort.SliceStable(mostVoted, func(i, j int) bool {
		if mostVoted[i].Votes != mostVoted[j].Votes {
			return mostVoted[i].Votes > mostVoted[j].Votes
		}
		return mostVoted[i].ModelName < mostVoted[j].ModelName
	})
	topRanked := append([]domain.ModelRankStats(nil), per...)
	sort.SliceStable(topRanked, func(i, j int) bool {
		if topRanked[i].MeanRank != topRanked[j].MeanRank {
			return topRanked[i].MeanRank < topRanked[j].MeanRank
		}
		return topRanked[i].ModelName < topRanked[j].ModelName
	})

	return domain.Statistics{
		TotalSessions: totals.Sessions,
		UniqueUsers:   totals.UniqueUsers,
		TotalRankings: totals.Rankings,
		MostVoted:     head(mostVoted, statisticsTopN),
		TopRanked:     head(topRanked, statisticsTopN),
		Models:        per,
	}, nil
}

func head(in []domain.ModelRankStats, n int) []domain.ModelRankStats {
	if len(in) > n {
		return in[:n]
	}
	return in
}

// table is one exported sheet.
type table struct {
	name    string
	headers []string
	rows    [][]any
}

func (s *rankingService) Export(ctx context.Context, dir, format string) ([]string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	rankings, err := s.repo.RankingRows(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.SessionRows(ctx)
	if err != nil {
		return nil, err
	}
	positions := make([]repository.Position, 0, len(rankings))
	for _, r := range rankings {
		positions = append(positions, repository.Position{ModelName: r.ModelName, RankPosition: r.RankPosition})
	}

	tables := []table{
		{name: "rankings", headers: []string{"session_id", "model_name", "rank_position", "created_at", "username"}},
		{name: "sessions", headers: []string{"session_id", "prompt", "created_at", "username"}},
		{name: "model_summary", headers: []string{"model", "avg_rank", "total_votes", "first_places", "score"}},
	}
	for _, r := range rankings {
		tables[0].rows = append(tables[0].rows, []any{r.SessionID, r.ModelName, r.RankPosition, formatTime(r.CreatedAt), r.Username})
	}
	for _, r := range sessions {
		tables[1].rows = append(tables[1].rows, []any{r.SessionID, r.Prompt, formatTime(r.CreatedAt), r.Username})
	}
	for _, e := range Leaderboard(positions) {
		tables[2].rows = append(tables[2].rows, []any{e.ModelName, e.AvgRank, e.TotalVotes, e.FirstPlaces, e.Score})
	}

	exportDir := filepath.Join(dir, "statistics")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	ts := s.now().Format("20060102_150405")

	var paths []string
	if format == ExportXLSX {
		path := filepath.Join(exportDir, "statistics_"+ts+".xlsx")
		if err := writeXLSX(path, tables); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	} else {
		for _, t := range tables {
			path := filepath.Join(exportDir, t.name+"_"+ts+".csv")
			if err := writeCSV(path, t); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	}
	s.logger.Info("Statistics exported to: "+exportDir, "format", format, "files", len(paths))
	return paths, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func writeCSV(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.headers); err != nil {
		return err
	}
	record := make([]string, len(t.headers))
	for _, row := range t.rows {
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, tables []table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return err
		}
		for c, h := range t.headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(t.name, cell, h); err != nil {
				return err
			}
		}
		for r, row := range t.rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				if err := f.SetCellValue(t.name, cell, v); err != nil {
					return err
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f.SaveAs(path)
}
