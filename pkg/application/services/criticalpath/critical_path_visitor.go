package criticalpath

import (
	"time"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// PlanNodeVisitor processes nodes during a post-order plan tree traversal
type PlanNodeVisitor interface {
	// VisitNode is called for each node before its children.
	// Returns data to be passed to ProcessChildren and whether to descend.
	VisitNode(node *entities.PlanNode, level int) (interface{}, bool)

	// ProcessChildren combines the node data with the results of its children
	ProcessChildren(node *entities.PlanNode, level int, nodeData interface{}, childResults []interface{}) interface{}
}

// Traverse walks a plan tree depth-first with a visitor
func Traverse(node *entities.PlanNode, level int, visitor PlanNodeVisitor) interface{} {
	if node == nil {
		return nil
	}

	nodeData, descend := visitor.VisitNode(node, level)

	var childResults []interface{}
	if descend {
		childResults = make([]interface{}, 0, len(node.Children))
		for _, child := range node.Children {
			childResults = append(childResults, Traverse(child, level+1, visitor))
		}
	}

	return visitor.ProcessChildren(node, level, nodeData, childResults)
}

// CriticalPathVisitor builds every chain of build steps through a plan tree
type CriticalPathVisitor struct{}

// NewCriticalPathVisitor creates a new critical path visitor
func NewCriticalPathVisitor() *CriticalPathVisitor {
	return &CriticalPathVisitor{}
}

// VisitNode creates the path node and only descends into nodes that are built
func (v *CriticalPathVisitor) VisitNode(node *entities.PlanNode, level int) (interface{}, bool) {
	pathNode := entities.CriticalPathNode{
		Item:              node.Item,
		Level:             level,
		RequiredQty:       node.RequiredQuantity,
		ManufacturingTime: OwnTime(node),
		Recommendation:    node.Recommendation,
		TakenFromStock:    node.Recommendation == entities.Take || node.Recommendation == entities.TakeThenBuy,
	}
	if node.Build != nil {
		pathNode.RecipeID = node.Build.RecipeID
	}

	return pathNode, node.Recommendation == entities.Build
}

// ProcessChildren prepends this node to every child path
func (v *CriticalPathVisitor) ProcessChildren(
	node *entities.PlanNode,
	level int,
	nodeData interface{},
	childResults []interface{},
) interface{} {
	pathNode := nodeData.(entities.CriticalPathNode)

	var childPaths []entities.CriticalPath
	for _, result := range childResults {
		if result != nil {
			childPaths = append(childPaths, result.([]entities.CriticalPath)...)
		}
	}

	if len(childPaths) == 0 {
		pathNode.CumulativeTime = pathNode.ManufacturingTime
		return []entities.CriticalPath{{
			TotalTime:      pathNode.ManufacturingTime,
			PathLength:     1,
			Path:           []entities.ItemID{node.Item},
			PathDetails:    []entities.CriticalPathNode{pathNode},
			BottleneckItem: node.Item,
		}}
	}

	paths := make([]entities.CriticalPath, 0, len(childPaths))
	for _, childPath := range childPaths {
		head := pathNode
		head.CumulativeTime = pathNode.ManufacturingTime + childPath.TotalTime

		bottleneck := node.Item
		if pathNode.ManufacturingTime < timeOf(childPath.BottleneckItem, childPath.PathDetails) {
			bottleneck = childPath.BottleneckItem
		}

		paths = append(paths, entities.CriticalPath{
			TotalTime:      head.CumulativeTime,
			PathLength:     1 + childPath.PathLength,
			Path:           append([]entities.ItemID{node.Item}, childPath.Path...),
			PathDetails:    append([]entities.CriticalPathNode{head}, childPath.PathDetails...),
			BottleneckItem: bottleneck,
		})
	}
	return paths
}

// OwnTime is the time a node adds on top of its inputs: manufacturing plus
// any included copy job for built nodes, nothing otherwise
func OwnTime(node *entities.PlanNode) time.Duration {
	if node.Recommendation != entities.Build || node.Build == nil {
		return 0
	}
	own := node.Build.ManufacturingTime
	if node.Build.CopyOverheadIncluded && node.Build.CopyOverhead != nil {
		own += node.Build.CopyOverhead.CopyTime
	}
	return own
}

func timeOf(item entities.ItemID, details []entities.CriticalPathNode) time.Duration {
	for _, node := range details {
		if node.Item == item {
			return node.ManufacturingTime
		}
	}
	return 0
}
