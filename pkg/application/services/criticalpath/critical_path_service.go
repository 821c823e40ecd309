package criticalpath

import (
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// CriticalPathService finds the longest chains of build steps in a plan
type CriticalPathService struct {
	logger logr.Logger
}

// NewCriticalPathService creates a new critical path service
func NewCriticalPathService(logger logr.Logger) *CriticalPathService {
	return &CriticalPathService{logger: logger}
}

// Analyze returns the top N root-to-leaf chains of a plan tree ordered by
// cumulative build time
func (cps *CriticalPathService) Analyze(root *entities.PlanNode, topN int) *entities.CriticalPathAnalysis {
	analysis := &entities.CriticalPathAnalysis{
		AnalysisDate: time.Now(),
	}
	if root == nil {
		return analysis
	}
	analysis.RootItem = root.Item

	result := Traverse(root, 0, NewCriticalPathVisitor())
	allPaths, _ := result.([]entities.CriticalPath)
	if len(allPaths) == 0 {
		return analysis
	}

	sort.SliceStable(allPaths, func(i, j int) bool {
		if allPaths[i].TotalTime != allPaths[j].TotalTime {
			return allPaths[i].TotalTime > allPaths[j].TotalTime
		}
		return allPaths[i].PathLength > allPaths[j].PathLength
	})

	topPaths := allPaths
	if topN > 0 && len(allPaths) > topN {
		topPaths = allPaths[:topN]
	}

	analysis.CriticalPath = allPaths[0]
	analysis.TopPaths = topPaths
	analysis.TotalPaths = len(allPaths)

	cps.logger.V(logging.DEBUG).Info("critical path analyzed",
		"root", root.Item,
		"paths", analysis.TotalPaths,
		"longest", analysis.CriticalPath.TotalTime.String())

	return analysis
}
