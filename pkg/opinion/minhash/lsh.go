package minhash

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// DefaultThreshold is the target Jaccard similarity of the index.
const DefaultThreshold = 0.85

const (
	falsePositiveWeight = 0.5
	falseNegativeWeight = 0.5
	integrationSteps    = 200
)

// Index is a banded LSH index over signatures. An item is a candidate for a
// query when all rows of at least one band match. Query results are not
// verified against the threshold, so callers must tolerate false positives.
//
// Index is not safe for concurrent use.
type Index struct {
	threshold float64
	numPerm   int
	bands     int
	rows      int
	tables    []map[string][]int
	keys      map[int]struct{}
}

// NewIndex picks the band/row split that minimizes the weighted false
// positive and false negative areas for the given threshold.
func NewIndex(threshold float64, numPerm int) (*Index, error) {
	if threshold < 0 || threshold > 1 {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput, "minhash: threshold must be in [0, 1], got %v", threshold)
	}
	if numPerm < 2 {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput, "minhash: num_perm must be at least 2, got %d", numPerm)
	}

	b, r := OptimalParams(threshold, numPerm)
	tables := make([]map[string][]int, b)
	for i := range tables {
		tables[i] = make(map[string][]int)
	}

	return &Index{
		threshold: threshold,
		numPerm:   numPerm,
		bands:     b,
		rows:      r,
		tables:    tables,
		keys:      make(map[int]struct{}),
	}, nil
}

// Params returns the number of bands and rows per band.
func (x *Index) Params() (bands, rows int) { return x.bands, x.rows }

// Threshold returns the similarity threshold the index was tuned for.
func (x *Index) Threshold() float64 { return x.threshold }

// Len returns the number of inserted ids.
func (x *Index) Len() int { return len(x.keys) }

// Insert adds id to one bucket per band. Ids must be unique.
func (x *Index) Insert(id int, sig Signature) error {
	if sig.Len() != x.numPerm {
		return eris.Wrapf(internalerr.ErrInvalidInput,
			"minhash: signature length %d does not match num_perm %d", sig.Len(), x.numPerm)
	}
	if _, ok := x.keys[id]; ok {
		return eris.Wrapf(internalerr.ErrDuplicate, "minhash: id %d already indexed", id)
	}

	x.keys[id] = struct{}{}
	for band, table := range x.tables {
		key := x.bandKey(sig, band)
		table[key] = append(table[key], id)
	}
	return nil
}

// Query returns every id sharing at least one band bucket with sig, in
// ascending order.
func (x *Index) Query(sig Signature) ([]int, error) {
	if sig.Len() != x.numPerm {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput,
			"minhash: signature length %d does not match num_perm %d", sig.Len(), x.numPerm)
	}

	seen := make(map[int]struct{})
	for band, table := range x.tables {
		for _, id := range table[x.bandKey(sig, band)] {
			seen[id] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (x *Index) bandKey(sig Signature, band int) string {
	start := band * x.rows
	buf := make([]byte, 0, x.rows*8)
	for _, v := range sig.values[start : start+x.rows] {
		buf = binary.BigEndian.AppendUint64(buf, v)
	}
	return string(buf)
}

// OptimalParams searches every (bands, rows) with bands*rows <= numPerm for
// the pair minimizing
//
//	0.5 * ∫[0,t] P(s) ds + 0.5 * ∫[t,1] (1 - P(s)) ds,  P(s) = 1 - (1 - s^r)^b
func OptimalParams(threshold float64, numPerm int) (bands, rows int) {
	minErr := math.Inf(1)
	for b := 1; b <= numPerm; b++ {
		maxR := numPerm / b
		for r := 1; r <= maxR; r++ {
			fp := integrate(func(s float64) float64 { return collision(s, b, r) }, 0, threshold)
			fn := integrate(func(s float64) float64 { return 1 - collision(s, b, r) }, threshold, 1)
			if e := fp*falsePositiveWeight + fn*falseNegativeWeight; e < minErr {
				minErr = e
				bands, rows = b, r
			}
		}
	}
	return bands, rows
}

// collision is the probability that two items with Jaccard similarity s
// share at least one band.
func collision(s float64, b, r int) float64 {
	return 1 - math.Pow(1-math.Pow(s, float64(r)), float64(b))
}

// integrate applies composite Simpson's rule.
func integrate(f func(float64) float64, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	h := (hi - lo) / integrationSteps
	sum := f(lo) + f(hi)
	for i := 1; i < integrationSteps; i++ {
		x := lo + float64(i)*h
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * h / 3
}
