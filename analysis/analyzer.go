package analysis

import (
	"image"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// Options bounds analysis cost and tunes its sensitivity. Zero values are
// replaced by defaults; see DefaultOptions.
type Options struct {
	MaxFocalPoints   int     `json:"max_focal_points"`  // cap on focal points (default 5)
	FocalThreshold   float64 `json:"focal_threshold"`   // min focal energy to count (default 0.15)
	ColorThreshold   float64 `json:"color_threshold"`   // max color distance when growing regions (default 0.12)
	MinRegionCells   int     `json:"min_region_cells"`  // regions below this merge into a neighbor (default 2)
	MaxColorRegions  int     `json:"max_color_regions"` // hard bound on region count (default 12)
	TextureThreshold float64 `json:"texture_threshold"` // min mean similarity for a pattern (default 0.85)
	MaxPatterns      int     `json:"max_patterns"`      // cap on reported patterns (default 4)
}

// DefaultOptions returns the bounds used when the config does not override
// them. MaxColorRegions stays within the 8-16 contract.
func DefaultOptions() Options {
	return Options{
		MaxFocalPoints:   5,
		FocalThreshold:   0.15,
		ColorThreshold:   0.12,
		MinRegionCells:   2,
		MaxColorRegions:  12,
		TextureThreshold: 0.85,
		MaxPatterns:      4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFocalPoints <= 0 {
		o.MaxFocalPoints = d.MaxFocalPoints
	}
	if o.FocalThreshold <= 0 {
		o.FocalThreshold = d.FocalThreshold
	}
	if o.ColorThreshold <= 0 {
		o.ColorThreshold = d.ColorThreshold
	}
	if o.MinRegionCells <= 0 {
		o.MinRegionCells = d.MinRegionCells
	}
	if o.MaxColorRegions <= 0 {
		o.MaxColorRegions = d.MaxColorRegions
	}
	if o.TextureThreshold <= 0 {
		o.TextureThreshold = d.TextureThreshold
	}
	if o.MaxPatterns <= 0 {
		o.MaxPatterns = d.MaxPatterns
	}
	return o
}

// Analyzer computes CompositionData snapshots from puzzle images.
type Analyzer struct {
	opts   Options
	logger *zap.SugaredLogger
}

// New creates an analyzer. A nil logger disables analyzer logging.
func New(opts Options, logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{opts: opts.withDefaults(), logger: logger}
}

// Analyze produces the composition snapshot for an image mapped onto the
// given grid. It errors only on malformed input (nil image, invalid grid);
// images with little structure degrade to a sparse snapshot instead.
func (a *Analyzer) Analyze(img image.Image, size grid.Size) (*CompositionData, error) {
	if img == nil {
		return nil, errors.NewInvalidRequestError("nil image")
	}
	if !size.Valid() {
		return nil, errors.NewInvalidRequestError("invalid grid size %dx%d", size.Rows, size.Cols)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.NewInvalidRequestError("empty image bounds")
	}

	stats := computeCellStats(img, size)

	data := &CompositionData{
		GridSize:    size,
		Fingerprint: Fingerprint(img),
	}
	data.FocalPoints = a.identifyFocalPoints(stats, size)
	data.ColorRegions = a.extractColorRegions(stats, size)
	data.Edges, data.Patterns = a.detectEdgesAndPatterns(stats, size)
	data.ComplexityScore = a.complexityScore(data, stats)

	if data.Degraded() {
		a.logger.Warnw("Analysis degraded to sparse composition",
			"fingerprint", data.Fingerprint[:12],
			"focal_points", len(data.FocalPoints),
			"color_regions", len(data.ColorRegions),
			"patterns", len(data.Patterns),
		)
	} else {
		a.logger.Debugw("Image analysis complete",
			"fingerprint", data.Fingerprint[:12],
			"focal_points", len(data.FocalPoints),
			"color_regions", len(data.ColorRegions),
			"patterns", len(data.Patterns),
			"complexity", data.ComplexityScore,
		)
	}
	return data, nil
}

// cellStat aggregates pixel statistics for one grid cell. All luminance and
// color channels are normalized to [0,1].
type cellStat struct {
	meanR, meanG, meanB float64
	meanLum             float64
	contrast            float64 // stddev of luminance within the cell
	saturation          float64
	texture             [4]float64 // quadrant mean luminances, row-major
}

// computeCellStats maps the image onto the grid and aggregates per-cell
// statistics in a single deterministic pass.
func computeCellStats(img image.Image, size grid.Size) []cellStat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	stats := make([]cellStat, size.Cells())

	for row := 0; row < size.Rows; row++ {
		y0 := bounds.Min.Y + row*h/size.Rows
		y1 := bounds.Min.Y + (row+1)*h/size.Rows
		for col := 0; col < size.Cols; col++ {
			x0 := bounds.Min.X + col*w/size.Cols
			x1 := bounds.Min.X + (col+1)*w/size.Cols
			idx := row*size.Cols + col
			stats[idx] = sampleCell(img, x0, y0, x1, y1)
		}
	}
	return stats
}

func sampleCell(img image.Image, x0, y0, x1, y1 int) cellStat {
	var s cellStat
	if x1 <= x0 || y1 <= y0 {
		return s
	}

	var sumR, sumG, sumB, sumLum, sumLumSq, sumSat float64
	var quadSum [4]float64
	var quadCount [4]float64
	midX, midY := (x0+x1)/2, (y0+y1)/2
	n := float64((x1 - x0) * (y1 - y0))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16) / 65535.0
			g := float64(g16) / 65535.0
			b := float64(b16) / 65535.0
			lum := 0.299*r + 0.587*g + 0.114*b

			sumR += r
			sumG += g
			sumB += b
			sumLum += lum
			sumLumSq += lum * lum
			sumSat += saturation(r, g, b)

			q := 0
			if x >= midX {
				q++
			}
			if y >= midY {
				q += 2
			}
			quadSum[q] += lum
			quadCount[q]++
		}
	}

	s.meanR = sumR / n
	s.meanG = sumG / n
	s.meanB = sumB / n
	s.meanLum = sumLum / n
	s.saturation = sumSat / n
	variance := sumLumSq/n - s.meanLum*s.meanLum
	if variance > 0 {
		s.contrast = math.Sqrt(variance)
	}
	for q := 0; q < 4; q++ {
		if quadCount[q] > 0 {
			s.texture[q] = quadSum[q] / quadCount[q]
		} else {
			s.texture[q] = s.meanLum
		}
	}
	return s
}

// identifyFocalPoints scores every cell by local contrast plus gradient
// energy against its 4-neighbors, then greedily picks maxima with
// non-maximum suppression so two focal points never sit on touching cells.
// Ranks are assigned in pick order and are unique by construction. A flat
// image yields an empty list.
func (a *Analyzer) identifyFocalPoints(stats []cellStat, size grid.Size) []FocalPoint {
	type scored struct {
		id    int
		score float64
	}
	scoredCells := make([]scored, 0, len(stats))
	for id := range stats {
		score := 0.6*clamp01(stats[id].contrast/0.3) + 0.4*clamp01(gradientEnergy(stats, size, id)/0.3)
		if score >= a.opts.FocalThreshold {
			scoredCells = append(scoredCells, scored{id: id, score: score})
		}
	}
	sort.Slice(scoredCells, func(i, j int) bool {
		if scoredCells[i].score != scoredCells[j].score {
			return scoredCells[i].score > scoredCells[j].score
		}
		return scoredCells[i].id < scoredCells[j].id
	})

	full := grid.Full(size)
	points := make([]FocalPoint, 0, a.opts.MaxFocalPoints)
	for _, sc := range scoredCells {
		if len(points) == a.opts.MaxFocalPoints {
			break
		}
		cell := grid.CellOf(sc.id, size)
		if tooClose(points, cell) {
			continue
		}
		region := grid.Region{
			RowStart: cell.Row - 1, RowEnd: cell.Row + 2,
			ColStart: cell.Col - 1, ColEnd: cell.Col + 2,
		}.Intersect(full)
		points = append(points, FocalPoint{
			Cell:       cell,
			Radius:     1,
			Importance: clamp01(sc.score),
			Rank:       len(points) + 1,
			Region:     region,
		})
	}
	return points
}

func tooClose(points []FocalPoint, c grid.Cell) bool {
	for _, p := range points {
		dr := p.Cell.Row - c.Row
		dc := p.Cell.Col - c.Col
		if dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1 {
			return true
		}
	}
	return false
}

// gradientEnergy is the mean absolute luminance difference between a cell
// and its 4-neighbors.
func gradientEnergy(stats []cellStat, size grid.Size, id int) float64 {
	c := grid.CellOf(id, size)
	neighbors := [4]grid.Cell{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
	}
	var sum float64
	var n int
	for _, nb := range neighbors {
		if !nb.In(size) {
			continue
		}
		sum += math.Abs(stats[id].meanLum - stats[nb.PieceID(size)].meanLum)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// extractColorRegions grows contiguous same-color regions over the cell
// grid, merges fragments below the minimum size into their closest-color
// neighbor, and keeps region count within the configured bound. Iteration
// order is fixed (row-major, smallest-first merging) so output is
// deterministic.
func (a *Analyzer) extractColorRegions(stats []cellStat, size grid.Size) []ColorRegion {
	assignment := make([]int, len(stats))
	for i := range assignment {
		assignment[i] = -1
	}

	var members [][]int
	for id := range stats {
		if assignment[id] != -1 {
			continue
		}
		regionID := len(members)
		cells := growRegion(stats, size, id, regionID, assignment, a.opts.ColorThreshold)
		members = append(members, cells)
	}

	members = a.mergeFragments(stats, size, members, assignment)
	members = a.boundRegionCount(stats, size, members, assignment)

	regions := make([]ColorRegion, 0, len(members))
	for _, cells := range members {
		if len(cells) == 0 {
			continue
		}
		regions = append(regions, buildColorRegion(stats, size, cells))
	}
	// Largest first; bounding box as tie-break keeps ordering stable.
	sort.Slice(regions, func(i, j int) bool {
		if len(regions[i].Cells) != len(regions[j].Cells) {
			return len(regions[i].Cells) > len(regions[j].Cells)
		}
		return regions[i].Cells[0].PieceID(size) < regions[j].Cells[0].PieceID(size)
	})
	return regions
}

func growRegion(stats []cellStat, size grid.Size, seed, regionID int, assignment []int, threshold float64) []int {
	queue := []int{seed}
	assignment[seed] = regionID
	var cells []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		cells = append(cells, id)

		c := grid.CellOf(id, size)
		for _, nb := range [4]grid.Cell{
			{Row: c.Row - 1, Col: c.Col},
			{Row: c.Row + 1, Col: c.Col},
			{Row: c.Row, Col: c.Col - 1},
			{Row: c.Row, Col: c.Col + 1},
		} {
			if !nb.In(size) {
				continue
			}
			nid := nb.PieceID(size)
			if assignment[nid] != -1 {
				continue
			}
			if colorDist(stats[seed], stats[nid]) <= threshold {
				assignment[nid] = regionID
				queue = append(queue, nid)
			}
		}
	}
	sort.Ints(cells)
	return cells
}

// mergeFragments folds regions below MinRegionCells into the adjacent
// region with the closest mean color.
func (a *Analyzer) mergeFragments(stats []cellStat, size grid.Size, members [][]int, assignment []int) [][]int {
	for rid := 0; rid < len(members); rid++ {
		if len(members[rid]) == 0 || len(members[rid]) >= a.opts.MinRegionCells {
			continue
		}
		target := closestNeighborRegion(stats, size, members, assignment, rid)
		if target == -1 {
			continue // single-region grid
		}
		mergeInto(members, assignment, rid, target)
	}
	return members
}

// boundRegionCount repeatedly merges the smallest region into its closest
// adjacent region until the count is within MaxColorRegions.
func (a *Analyzer) boundRegionCount(stats []cellStat, size grid.Size, members [][]int, assignment []int) [][]int {
	for countRegions(members) > a.opts.MaxColorRegions {
		smallest := -1
		for rid := range members {
			if len(members[rid]) == 0 {
				continue
			}
			if smallest == -1 || len(members[rid]) < len(members[smallest]) {
				smallest = rid
			}
		}
		target := closestNeighborRegion(stats, size, members, assignment, smallest)
		if target == -1 {
			break
		}
		mergeInto(members, assignment, smallest, target)
	}
	return members
}

func countRegions(members [][]int) int {
	n := 0
	for _, m := range members {
		if len(m) > 0 {
			n++
		}
	}
	return n
}

func closestNeighborRegion(stats []cellStat, size grid.Size, members [][]int, assignment []int, rid int) int {
	best := -1
	bestDist := math.MaxFloat64
	for _, id := range members[rid] {
		c := grid.CellOf(id, size)
		for _, nb := range [4]grid.Cell{
			{Row: c.Row - 1, Col: c.Col},
			{Row: c.Row + 1, Col: c.Col},
			{Row: c.Row, Col: c.Col - 1},
			{Row: c.Row, Col: c.Col + 1},
		} {
			if !nb.In(size) {
				continue
			}
			other := assignment[nb.PieceID(size)]
			if other == rid || other == -1 {
				continue
			}
			d := colorDist(stats[id], stats[nb.PieceID(size)])
			if d < bestDist || (d == bestDist && other < best) {
				bestDist = d
				best = other
			}
		}
	}
	return best
}

func mergeInto(members [][]int, assignment []int, from, to int) {
	for _, id := range members[from] {
		assignment[id] = to
	}
	members[to] = append(members[to], members[from]...)
	sort.Ints(members[to])
	members[from] = nil
}

func buildColorRegion(stats []cellStat, size grid.Size, cellIDs []int) ColorRegion {
	var sumR, sumG, sumB, sumSat, sumContrast float64
	cells := make([]grid.Cell, len(cellIDs))
	box := grid.Region{RowStart: size.Rows, ColStart: size.Cols}
	for i, id := range cellIDs {
		c := grid.CellOf(id, size)
		cells[i] = c
		sumR += stats[id].meanR
		sumG += stats[id].meanG
		sumB += stats[id].meanB
		sumSat += stats[id].saturation
		sumContrast += stats[id].contrast
		if c.Row < box.RowStart {
			box.RowStart = c.Row
		}
		if c.Row+1 > box.RowEnd {
			box.RowEnd = c.Row + 1
		}
		if c.Col < box.ColStart {
			box.ColStart = c.Col
		}
		if c.Col+1 > box.ColEnd {
			box.ColEnd = c.Col + 1
		}
	}
	n := float64(len(cellIDs))
	return ColorRegion{
		Region: box,
		Cells:  cells,
		DominantColor: RGB{
			R: uint8(math.Round(sumR / n * 255)),
			G: uint8(math.Round(sumG / n * 255)),
			B: uint8(math.Round(sumB / n * 255)),
		},
		AvgSaturation: sumSat / n,
		AvgContrast:   sumContrast / n,
	}
}

// detectEdgesAndPatterns classifies border cells into the edge structure and
// groups interior cells by quantized texture signature. Signature groups of
// two or more cells whose mean pairwise similarity clears the threshold
// become patterns, ordered by descending cell count.
func (a *Analyzer) detectEdgesAndPatterns(stats []cellStat, size grid.Size) (EdgeStructure, []Pattern) {
	var edges EdgeStructure
	groups := make(map[string][]int)
	var signatures []string

	for id := range stats {
		c := grid.CellOf(id, size)
		switch {
		case c.IsCorner(size):
			edges.CornerCells = append(edges.CornerCells, c)
		case c.OnBorder(size):
			edges.BorderCells = append(edges.BorderCells, c)
		default:
			sig := textureSignature(stats[id])
			if _, seen := groups[sig]; !seen {
				signatures = append(signatures, sig)
			}
			groups[sig] = append(groups[sig], id)
		}
	}

	var patterns []Pattern
	for _, sig := range signatures {
		ids := groups[sig]
		if len(ids) < 2 {
			continue
		}
		// A signature only counts as a pattern when it carries texture;
		// flat same-color cells match trivially but guide nobody.
		if meanContrastOf(stats, ids) < 0.02 {
			continue
		}
		sim := meanPairwiseSimilarity(stats, ids)
		if sim < a.opts.TextureThreshold {
			continue
		}
		cells := make([]grid.Cell, len(ids))
		for i, id := range ids {
			cells[i] = grid.CellOf(id, size)
		}
		patterns = append(patterns, Pattern{Signature: sig, Cells: cells, Similarity: sim})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i].Cells) != len(patterns[j].Cells) {
			return len(patterns[i].Cells) > len(patterns[j].Cells)
		}
		return patterns[i].Signature < patterns[j].Signature
	})
	if len(patterns) > a.opts.MaxPatterns {
		patterns = patterns[:a.opts.MaxPatterns]
	}
	return edges, patterns
}

// textureSignature quantizes the quadrant luminances and dominant hue bucket
// into a compact comparable key.
func textureSignature(s cellStat) string {
	const levels = 6
	buf := make([]byte, 0, 8)
	for _, q := range s.texture {
		level := int(q * levels)
		if level >= levels {
			level = levels - 1
		}
		buf = append(buf, byte('a'+level))
	}
	buf = append(buf, byte('0'+hueBucket(s.meanR, s.meanG, s.meanB)))
	return string(buf)
}

func hueBucket(r, g, b float64) int {
	switch {
	case r >= g && r >= b:
		return 0
	case g >= r && g >= b:
		return 1
	default:
		return 2
	}
}

func meanContrastOf(stats []cellStat, ids []int) float64 {
	var sum float64
	for _, id := range ids {
		sum += stats[id].contrast
	}
	return sum / float64(len(ids))
}

func meanPairwiseSimilarity(stats []cellStat, ids []int) float64 {
	if len(ids) < 2 {
		return 0
	}
	var sum float64
	var n int
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			sum += textureSimilarity(stats[ids[i]], stats[ids[j]])
			n++
		}
	}
	return sum / float64(n)
}

// textureSimilarity is 1 minus the mean absolute quadrant difference.
func textureSimilarity(a, b cellStat) float64 {
	var diff float64
	for q := 0; q < 4; q++ {
		diff += math.Abs(a.texture[q] - b.texture[q])
	}
	return clamp01(1 - diff/4)
}

// complexityScore blends how much structure the image yielded into [0,1].
// A flat image scores near zero, a busy one near one.
func (a *Analyzer) complexityScore(data *CompositionData, stats []cellStat) float64 {
	var sumContrast float64
	for i := range stats {
		sumContrast += stats[i].contrast
	}
	meanContrast := sumContrast / float64(len(stats))

	score := 0.35*float64(len(data.FocalPoints))/float64(a.opts.MaxFocalPoints) +
		0.25*float64(len(data.ColorRegions))/float64(a.opts.MaxColorRegions) +
		0.2*float64(len(data.Patterns))/float64(a.opts.MaxPatterns) +
		0.2*clamp01(meanContrast/0.25)
	return clamp01(score)
}

func colorDist(a, b cellStat) float64 {
	dr := a.meanR - b.meanR
	dg := a.meanG - b.meanG
	db := a.meanB - b.meanB
	return math.Sqrt(dr*dr+dg*dg+db*db) / math.Sqrt(3)
}

func saturation(r, g, b float64) float64 {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	if maxC == 0 {
		return 0
	}
	return (maxC - minC) / maxC
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
