package planner

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// planCache memoizes subtree plans for a single Plan call. It is never shared
// between requests, so it needs no locking.
type planCache struct {
	entries map[dto.PlanCacheKey]*entities.PlanNode
	hits    int
	misses  int
}

func newPlanCache() *planCache {
	return &planCache{entries: make(map[dto.PlanCacheKey]*entities.PlanNode)}
}

// get returns a deep copy so that no two parents ever share a child
func (c *planCache) get(key dto.PlanCacheKey) (*entities.PlanNode, bool) {
	node, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return node.Clone(), true
}

func (c *planCache) put(key dto.PlanCacheKey, node *entities.PlanNode) {
	c.entries[key] = node
}

func (c *planCache) size() int {
	return len(c.entries)
}

func cacheKey(item entities.ItemID, quantity entities.Quantity, depth int, path []entities.ItemID) dto.PlanCacheKey {
	return dto.PlanCacheKey{
		Item:     item,
		Quantity: quantity,
		Depth:    depth,
		Path:     pathFingerprint(path),
	}
}

// pathFingerprint renders the visited set independent of visit order
func pathFingerprint(path []entities.ItemID) string {
	if len(path) == 0 {
		return ""
	}
	ids := make([]int64, len(path))
	for i, item := range path {
		ids[i] = int64(item)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}
