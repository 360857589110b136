package stage

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Bucket is one entry of a reduced color histogram.
type Bucket struct {
	Count   int
	R, G, B int
}

// Spread is the mean pairwise absolute difference between the channels.
// Shades of grey sit at or near zero.
func (b Bucket) Spread() float64 {
	return float64(abs(b.G-b.R)+abs(b.B-b.R)+abs(b.B-b.G)) / 3
}

// Matches "  10831: ( 24, 26, 26,255) #181A1A srgba(24,26,26,1)".
var histogramLine = regexp.MustCompile(`^\s*(\d+):\s*\(\s*(\d+),\s*(\d+),\s*(\d+)`)

// ParseHistogram extracts buckets from histogram:info output, sorted by
// descending pixel count. Unparseable lines are ignored.
func ParseHistogram(out []byte) []Bucket {
	var buckets []Bucket
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := histogramLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		var v [4]int
		ok := true
		for i := range v {
			n, err := strconv.Atoi(m[i+1])
			if err != nil {
				ok = false
				break
			}
			v[i] = n
		}
		if ok {
			buckets = append(buckets, Bucket{Count: v[0], R: v[1], G: v[2], B: v[3]})
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Count > buckets[j].Count })
	return buckets
}

// MaxSpread returns the largest channel spread across buckets.
func MaxSpread(buckets []Bucket) float64 {
	highest := 0.0
	for _, b := range buckets {
		if s := b.Spread(); s > highest {
			highest = s
		}
	}
	return highest
}

// Matches "    standard deviation: 12345.6 (0.188385)".
var stdDevLine = regexp.MustCompile(`standard deviation:\s*\d+(?:\.\d+)?\s*\((\d+(?:\.\d+)?(?:e[-+]?\d+)?)\)`)

// ParseStdDevs returns every normalized standard deviation in verbose
// identify output, one per channel plus the overall figure.
func ParseStdDevs(out []byte) []float64 {
	var vals []float64
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := stdDevLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		if f, err := strconv.ParseFloat(m[1], 64); err == nil && !math.IsNaN(f) {
			vals = append(vals, f)
		}
	}
	return vals
}

// ParseDimensions reads "W H" as printed by -format "%w %h".
func ParseDimensions(out []byte) (int, int, error) {
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected dimension output %q", strings.TrimSpace(string(out)))
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", fields[0], err)
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", fields[1], err)
	}
	return w, h, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
