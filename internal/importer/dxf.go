package importer

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/framefill/internal/model"
)

// minFrameSize is the smallest accepted DXF frame edge in drawing units.
const minFrameSize = 0.01

// segment is a line between two points, used to chain loose LINE and ARC
// entities into closed outlines.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// ImportDXF reads frames from a DXF file. Every LWPOLYLINE, CIRCLE and closed
// chain of LINEs/ARCs becomes one shape whose bounds are the outline's
// bounding box. DXF is y-up, so coordinates are [minX, maxY, maxX, minY].
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]model.Point2D
	var segments []segment
	skipped := 0

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			pts := lwPolylinePoints(e)
			if len(pts) >= 3 {
				outlines = append(outlines, pts)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			outlines = append(outlines, []model.Point2D{
				{X: e.Center[0] - e.Radius, Y: e.Center[1] - e.Radius},
				{X: e.Center[0] + e.Radius, Y: e.Center[1] + e.Radius},
			})

		case *entity.Arc:
			pts := arcPoints(e, 32)
			for i := 0; i+1 < len(pts); i++ {
				segments = append(segments, segment{start: pts[i], end: pts[i+1]})
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		default:
			skipped++
		}
	}
	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Ignored %d unsupported entities", skipped))
	}

	closed, open := chainSegments(segments, 0.01)
	outlines = append(outlines, closed...)
	if open > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Ignored %d open line chains", open))
	}

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	for _, outline := range outlines {
		minX, minY, maxX, maxY := boundingBox(outline)
		width, height := maxX-minX, maxY-minY
		if width < minFrameSize || height < minFrameSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f)", width, height))
			continue
		}

		label := fmt.Sprintf("DXF Frame %d", len(result.Shapes)+1)
		result.Shapes = append(result.Shapes, model.Shape{
			Label:  label,
			Coords: []float64{minX, maxY, maxX, minY},
		})
	}

	return result
}

// lwPolylinePoints returns the vertices of a LWPOLYLINE. Bulged segments
// contribute their arc points so the bounding box covers the curve.
func lwPolylinePoints(lw *entity.LwPolyline) []model.Point2D {
	var pts []model.Point2D
	n := len(lw.Vertices)
	for i := 0; i < n; i++ {
		current := model.Point2D{X: lw.Vertices[i][0], Y: lw.Vertices[i][1]}
		pts = append(pts, current)

		if i < len(lw.Bulges) && math.Abs(lw.Bulges[i]) > 1e-9 {
			next := model.Point2D{X: lw.Vertices[(i+1)%n][0], Y: lw.Vertices[(i+1)%n][1]}
			arc := bulgeArcPoints(current, next, lw.Bulges[i], 32)
			pts = append(pts, arc[1:len(arc)-1]...)
		}
	}
	return pts
}

// bulgeArcPoints samples the arc between p1 and p2 described by a DXF bulge,
// the tangent of a quarter of the included angle. Positive bulges turn
// counter-clockwise.
func bulgeArcPoints(p1, p2 model.Point2D, bulge float64, steps int) []model.Point2D {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []model.Point2D{p1, p2}
	}

	sweep := 4 * math.Atan(bulge)
	radius := chord / (2 * math.Sin(math.Abs(sweep)/2))

	// Center lies on the chord's perpendicular bisector, left of p1->p2 for
	// counter-clockwise arcs. Sweeps over 180 degrees flip it via the cosine.
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	offset := radius * math.Cos(math.Abs(sweep)/2)
	nx, ny := -dy/chord, dx/chord
	if bulge < 0 {
		nx, ny = -nx, -ny
	}
	cx, cy := mx+nx*offset, my+ny*offset

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	pts := make([]model.Point2D, steps+1)
	for i := 0; i <= steps; i++ {
		a := start + sweep*float64(i)/float64(steps)
		pts[i] = model.Point2D{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	pts[steps] = p2
	return pts
}

// arcPoints samples a DXF ARC, which always runs counter-clockwise from its
// start angle to its end angle in degrees.
func arcPoints(a *entity.Arc, steps int) []model.Point2D {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]model.Point2D, steps+1)
	for i := 0; i <= steps; i++ {
		angle := startRad + float64(i)/float64(steps)*(endRad-startRad)
		pts[i] = model.Point2D{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

// chainSegments joins segments end to end into closed outlines, keeping the
// order in which chains start. It also reports how many chains stayed open.
func chainSegments(segs []segment, tolerance float64) ([][]model.Point2D, int) {
	used := make([]bool, len(segs))
	var outlines [][]model.Point2D
	open := 0

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		used[startIdx] = true
		chain := []model.Point2D{segs[startIdx].start, segs[startIdx].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, seg.start, tolerance):
					chain = append(chain, seg.end)
				case pointsClose(tail, seg.end, tolerance):
					chain = append(chain, seg.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		} else {
			open++
		}
	}
	return outlines, open
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

func boundingBox(pts []model.Point2D) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}
