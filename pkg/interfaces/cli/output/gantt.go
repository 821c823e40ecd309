package output

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// JobKind separates the bars of a build schedule
type JobKind string

const (
	JobCopy          JobKind = "copy"
	JobManufacturing JobKind = "manufacturing"
)

// ScheduledJob is one industry job placed on the build timeline
type ScheduledJob struct {
	Item     entities.ItemID
	RecipeID entities.RecipeID
	Kind     JobKind
	Runs     entities.Quantity
	Start    time.Duration
	End      time.Duration
}

// Schedule lays the build jobs of the plan out one after another. Inputs are
// finished before the job that consumes them, so a root's jobs end at the
// root's effective time.
func Schedule(roots []*entities.PlanNode) []ScheduledJob {
	var jobs []ScheduledJob
	var cursor time.Duration

	var place func(node *entities.PlanNode)
	place = func(node *entities.PlanNode) {
		if node == nil || node.Recommendation != entities.Build || node.Build == nil {
			return
		}
		for _, child := range node.Children {
			place(child)
		}
		build := node.Build
		if build.CopyOverheadIncluded && build.CopyOverhead.CopyTime > 0 {
			jobs = append(jobs, ScheduledJob{
				Item: node.Item, RecipeID: build.RecipeID, Kind: JobCopy, Runs: build.RunsNeeded,
				Start: cursor, End: cursor + build.CopyOverhead.CopyTime,
			})
			cursor += build.CopyOverhead.CopyTime
		}
		jobs = append(jobs, ScheduledJob{
			Item: node.Item, RecipeID: build.RecipeID, Kind: JobManufacturing, Runs: build.RunsNeeded,
			Start: cursor, End: cursor + build.ManufacturingTime,
		})
		cursor += build.ManufacturingTime
	}

	for _, root := range roots {
		place(root)
	}
	return jobs
}

// GanttChart renders a build schedule as SVG
type GanttChart struct {
	Width        int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
}

// NewGanttChart creates a chart with the default layout
func NewGanttChart() *GanttChart {
	return &GanttChart{
		Width:        1200,
		MarginLeft:   160,
		MarginTop:    60,
		MarginRight:  60,
		MarginBottom: 50,
		RowHeight:    26,
	}
}

// GenerateSVG draws one row per scheduled job
func (gc *GanttChart) GenerateSVG(jobs []ScheduledJob) string {
	height := gc.MarginTop + gc.MarginBottom + max(1, len(jobs))*gc.RowHeight
	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, height))
	svg.WriteString(`<style>`)
	svg.WriteString(`.label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.axis { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, gc.Width, height))

	if len(jobs) == 0 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="title" text-anchor="middle">No Build Jobs</text>`,
			gc.Width/2, height/2))
		svg.WriteString(`</svg>`)
		return svg.String()
	}

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Build Schedule</text>`, gc.Width/2))

	var total time.Duration
	for _, job := range jobs {
		total = max(total, job.End)
	}
	if total <= 0 {
		total = time.Second
	}
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	xOf := func(d time.Duration) int {
		return gc.MarginLeft + int(float64(d)/float64(total)*float64(chartWidth))
	}

	axisY := gc.MarginTop + len(jobs)*gc.RowHeight
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		at := total * time.Duration(i) / ticks
		x := xOf(at)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid"/>`, x, gc.MarginTop, x, axisY))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis" text-anchor="middle">%s</text>`,
			x, axisY+15, formatDuration(at)))
	}

	for i, job := range jobs {
		y := gc.MarginTop + i*gc.RowHeight
		width := max(2, xOf(job.End)-xOf(job.Start))

		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="label" text-anchor="end">%d (%s)</text>`,
			gc.MarginLeft-10, y+gc.RowHeight/2+4, job.Item, job.Kind))
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s</title></rect>`,
			xOf(job.Start), y+2, width, gc.RowHeight-4, barColor(job.Kind),
			html.EscapeString(fmt.Sprintf("item %d, recipe %d, %d runs, %s to %s",
				job.Item, job.RecipeID, job.Runs, formatDuration(job.Start), formatDuration(job.End)))))
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

func barColor(kind JobKind) string {
	switch kind {
	case JobCopy:
		return "#FF9800"
	default:
		return "#4CAF50"
	}
}

// formatDuration renders durations as days and hours for long builds
func formatDuration(d time.Duration) string {
	if d >= 24*time.Hour {
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return d.Round(time.Minute).String()
}
