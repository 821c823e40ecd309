package entities

import (
	"fmt"
	"time"
)

// CriticalPathNode represents one build step on a chain through a plan tree
type CriticalPathNode struct {
	Item              ItemID
	RecipeID          RecipeID
	Level             int
	RequiredQty       Quantity
	ManufacturingTime time.Duration
	CumulativeTime    time.Duration
	Recommendation    Recommendation
	TakenFromStock    bool
}

// CriticalPath represents a complete root-to-leaf chain of build steps
type CriticalPath struct {
	TotalTime      time.Duration
	PathLength     int
	Path           []ItemID
	PathDetails    []CriticalPathNode
	BottleneckItem ItemID // Item with the longest own manufacturing time in this path
}

// CriticalPathAnalysis contains the results of critical path analysis
type CriticalPathAnalysis struct {
	RootItem     ItemID
	AnalysisDate time.Time
	CriticalPath CriticalPath   // The longest path
	TopPaths     []CriticalPath // Top N longest paths
	TotalPaths   int
}

// GetCriticalPathSummary returns a formatted summary of the critical path
func (analysis *CriticalPathAnalysis) GetCriticalPathSummary() string {
	if len(analysis.TopPaths) == 0 {
		return "No critical path found"
	}

	cp := analysis.CriticalPath
	summary := fmt.Sprintf("Critical Path: %s over %d builds", cp.TotalTime, cp.PathLength)
	if cp.BottleneckItem != 0 {
		summary += fmt.Sprintf(" | Bottleneck: %d", cp.BottleneckItem)
	}
	return summary
}

// GetPathSummary returns a formatted summary for a specific path
func (path *CriticalPath) GetPathSummary() string {
	return fmt.Sprintf("%s - %d levels - bottleneck %d",
		path.TotalTime, path.PathLength, path.BottleneckItem)
}

// GetStockCoverage returns the percentage of top paths that end on an item taken from stock
func (analysis *CriticalPathAnalysis) GetStockCoverage() float64 {
	if len(analysis.TopPaths) == 0 {
		return 0.0
	}

	covered := 0
	for _, path := range analysis.TopPaths {
		for _, node := range path.PathDetails {
			if node.TakenFromStock {
				covered++
				break
			}
		}
	}

	return float64(covered) / float64(len(analysis.TopPaths)) * 100.0
}
