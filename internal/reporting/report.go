package reporting

import (
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/metrics"
)

// Report represents one simulation run report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	EntryPolicy string // e.g. FIXED_GAP_4, ADAPTIVE_P90_MIN11
	Config      domain.SimulationConfig

	Dataset DatasetSummary
	KPIs    KPISection
	Risk    RiskSection

	// Longest completed gaps, descending
	TopGaps []domain.CompletedGap

	Monthly      []metrics.MonthPnL
	BySequence   []metrics.SequenceStats
	SessionStats metrics.SessionStats
	StopClusters []metrics.StopCluster
}

// DatasetSummary describes the replayed stream.
type DatasetSummary struct {
	Days           int
	Events         int
	EligibleEvents int
	CompletedGaps  int
	FinalGap       int
	FinalThreshold int // -1 when unreachable
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// KPISection contains headline results.
type KPISection struct {
	StartingEquity     float64
	FinalEquity        float64
	NetProfit          float64
	TotalCost          float64
	TotalPayout        float64
	ProfitFactor       float64
	SessionsOpened     int
	Wins               int
	StopLosses         int
	SkippedWins        int
	WinRate            float64
	AvgStepsToWin      float64
	AvgMonthlyPnL      float64
	LastThreeMonthsAvg float64
}

// RiskSection contains drawdown and ruin metrics.
type RiskSection struct {
	Peak                float64
	Trough              float64
	MaxDrawdown         float64
	MaxConsecutiveStops int
	WorstCaseLadderCost float64 // base stake × worst-case ladder units
	RecommendedBankroll float64
	Busted              bool
}

// LeaderboardReport ranks the runs of one sweep.
type LeaderboardReport struct {
	GeneratedAt time.Time
	BatchID     string
	Runs        int
	Rows        []LeaderboardRow
}

// LeaderboardRow represents one row in the sweep leaderboard.
type LeaderboardRow struct {
	Rank                int
	RunID               string
	EntryPolicy         string
	BaseStake           float64
	StepMultiplier      float64
	MaxSteps            int
	CooldownResets      int // 0 when cooldown is disabled
	FinalEquity         float64
	NetProfit           float64
	MaxDrawdown         float64
	ProfitFactor        float64
	Wins                int
	StopLosses          int
	WinRate             float64
	MaxConsecutiveStops int
	Busted              bool
}
