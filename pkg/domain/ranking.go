package domain

import "time"

const (
	AnonymousUserID   = "anonymous"
	AnonymousUsername = "Anonymous User"
)

type User struct {
	UserID    string    `db:"user_id" json:"userId"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type VotingSession struct {
	SessionID string    `db:"session_id" json:"sessionId"`
	UserID    string    `db:"user_id" json:"userId"`
	Prompt    string    `db:"prompt" json:"prompt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type RankedEntry struct {
	RankingID    string    `db:"ranking_id" json:"rankingId"`
	SessionID    string    `db:"session_id" json:"sessionId"`
	ModelName    string    `db:"model_name" json:"modelName"`
	ModelID      string    `db:"model_id" json:"modelId"`
	RankPosition int       `db:"rank_position" json:"rankPosition"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// LeaderboardEntry is derived from the ranking history on every read.
type LeaderboardEntry struct {
	ModelName   string  `json:"modelName"`
	TotalVotes  int     `json:"totalVotes"`
	FirstPlaces int     `json:"firstPlaces"`
	AvgRank     float64 `json:"avgRank"`
	Score       float64 `json:"score"`
}

type ModelRankStats struct {
	ModelName   string  `json:"modelName"`
	Votes       int     `json:"votes"`
	MeanRank    float64 `json:"meanRank"`
	MedianRank  float64 `json:"medianRank"`
	StdDevRank  float64 `json:"stdDevRank"`
	FirstPlaces int     `json:"firstPlaces"`
	Score       float64 `json:"score"`
}

type Statistics struct {
	TotalSessions int              `json:"totalSessions"`
	UniqueUsers   int              `json:"uniqueUsers"`
	TotalRankings int              `json:"totalRankings"`
	MostVoted     []ModelRankStats `json:"mostVoted"`
	TopRanked     []ModelRankStats `json:"topRanked"`
	Models        []ModelRankStats `json:"models"`
}

// SessionRow and RankingRow are the joined views used by statistics and export.
type SessionRow struct {
	SessionID string    `db:"session_id" json:"sessionId"`
	Prompt    string    `db:"prompt" json:"prompt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Username  string    `db:"username" json:"username"`
}

type RankingRow struct {
	SessionID    string    `db:"session_id" json:"sessionId"`
	ModelName    string    `db:"model_name" json:"modelName"`
	RankPosition int       `db:"rank_position" json:"rankPosition"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	Username     string    `db:"username" json:"username"`
}
