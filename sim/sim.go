// Package sim applies a fixed three-step transformation pipeline
// (map, filter, reduceByKey) to a small in-memory record collection,
// one step per call, with a human-readable audit log.
package sim

// Record is one (key, value) unit of the toy dataset. Duplicate keys
// are expected and meaningful; reduceByKey groups them.
type Record struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Stage counts how many transformations have been applied.
type Stage int

const (
	StageInitial Stage = iota
	StageMapped
	StageFiltered
	StageReduced
)

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageMapped:
		return "mapped"
	case StageFiltered:
		return "filtered"
	case StageReduced:
		return "reduced"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transformations are defined.
func (s Stage) Terminal() bool {
	return s >= StageReduced
}

// Pending returns the name of the transformation that would run next,
// or "" at the terminal stage.
func (s Stage) Pending() string {
	switch s {
	case StageInitial:
		return "map"
	case StageMapped:
		return "filter"
	case StageFiltered:
		return "reduceByKey"
	default:
		return ""
	}
}

const (
	mapFactor = 2
	filterKey = "banana"
)

// DefaultSeed returns the built-in seed record collection.
func DefaultSeed() []Record {
	return []Record{
		{Key: "apple", Value: 1},
		{Key: "banana", Value: 1},
		{Key: "apple", Value: 1},
		{Key: "carrot", Value: 1},
	}
}

// Simulator steps a record collection through the fixed pipeline.
// The stage counter gates which transformation runs; the only way to
// run one is Advance, so out-of-order invocation cannot happen.
//
// A Simulator is exclusively owned by one session and is not safe for
// concurrent use.
type Simulator struct {
	seed    []Record
	records []Record
	stage   Stage
	log     []string
}

// New creates a simulator over a deep copy of seed. A nil seed yields
// an empty, independent collection.
func New(seed []Record) *Simulator {
	s := &Simulator{
		seed: make([]Record, len(seed)),
	}
	copy(s.seed, seed)
	s.records = make([]Record, len(s.seed))
	copy(s.records, s.seed)
	return s
}

// Advance runs the transformation the current stage calls for and
// returns the resulting stage. The bool reports whether anything ran;
// it is false once the pipeline is at its terminal stage, in which
// case records, log and stage are untouched.
func (s *Simulator) Advance() (Stage, bool) {
	switch s.stage {
	case StageInitial:
		s.applyMap()
	case StageMapped:
		s.applyFilter()
	case StageFiltered:
		s.applyReduceByKey()
	default:
		return s.stage, false
	}
	s.stage++
	return s.stage, true
}

// Reset restores the originally-provided seed, sets the stage back to
// the start and clears the log. It always succeeds.
func (s *Simulator) Reset() {
	s.records = make([]Record, len(s.seed))
	copy(s.records, s.seed)
	s.stage = StageInitial
	s.log = nil
}

// Stage returns the current stage counter.
func (s *Simulator) Stage() Stage {
	return s.stage
}

// Records returns a copy of the current record collection.
func (s *Simulator) Records() []Record {
	records := make([]Record, len(s.records))
	copy(records, s.records)
	return records
}

// Log returns a copy of the transformation log, one line per applied
// transformation, oldest first.
func (s *Simulator) Log() []string {
	log := make([]string, len(s.log))
	copy(log, s.log)
	return log
}

func (s *Simulator) applyMap() {
	for i := range s.records {
		s.records[i].Value *= mapFactor
	}
	s.log = append(s.log, "map: multiplied each value by 2")
}

func (s *Simulator) applyFilter() {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.Key != filterKey {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.log = append(s.log, `filter: removed records where key == "banana"`)
}

func (s *Simulator) applyReduceByKey() {
	index := make(map[string]int, len(s.records))
	reduced := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if i, ok := index[r.Key]; ok {
			reduced[i].Value += r.Value
			continue
		}
		index[r.Key] = len(reduced)
		reduced = append(reduced, r)
	}
	s.records = reduced
	s.log = append(s.log, "reduceByKey: summed values grouped by key")
}
