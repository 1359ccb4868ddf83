package engine

// Field is one parsed value. Data borrows either the input window (unquoted
// fields) or the parser's quoted arena (quoted fields); either way it is
// valid only for the duration of the row callback that receives it.
type Field struct {
	Data   []byte
	Quoted bool
}

// Size is the field's byte length.
func (f Field) Size() int { return len(f.Data) }

// Row is one emitted record. Fields shares storage with the parser's
// internal field vector and, like Field.Data, is valid only until the row
// callback returns.
type Row struct {
	Fields     []Field
	RowNumber  uint64
	ByteOffset uint64
}

// NumFields is the number of fields in the row.
func (r Row) NumFields() int { return len(r.Fields) }

// fieldVec is the reused, growable []Field backing a parser's in-progress
// row. It is cleared (not reallocated) after each row emission so the
// backing array survives across rows, matching fields_vec's contract in
// the design: capacity is retained, contents are cleared.
type fieldVec struct {
	fields []Field
	budget *memoryBudget
	stats  *counters
}

// fieldDescriptorSize approximates the in-memory footprint of one Field
// slot (one 24-byte slice header plus a bool, padded) for memory
// accounting purposes; it does not need to be exact, only monotonic.
const fieldDescriptorSize = 32

func newFieldVec(initialCapacity int, budget *memoryBudget, stats *counters) (*fieldVec, error) {
	v := &fieldVec{budget: budget, stats: stats}
	if initialCapacity > 0 {
		delta := int64(initialCapacity * fieldDescriptorSize)
		if err := budget.reserve(delta); err != nil {
			return nil, err
		}
		v.fields = make([]Field, 0, initialCapacity)
	}
	return v, nil
}

// push appends a field, growing geometrically (×1.5, matching the arena
// policy) and charging any growth against the shared memory budget.
func (v *fieldVec) push(f Field) error {
	if len(v.fields) == cap(v.fields) {
		newCap := int(float64(cap(v.fields)) * growthFactor)
		if newCap <= cap(v.fields) {
			newCap = cap(v.fields) + 8
		}
		delta := int64((newCap - cap(v.fields)) * fieldDescriptorSize)
		if err := v.budget.reserve(delta); err != nil {
			return err
		}
		grown := make([]Field, len(v.fields), newCap)
		copy(grown, v.fields)
		v.fields = grown
		if v.stats != nil {
			v.stats.recordRealloc()
		}
	}
	v.fields = append(v.fields, f)
	return nil
}

func (v *fieldVec) len() int { return len(v.fields) }

// reset clears contents but retains the backing array's capacity.
func (v *fieldVec) reset() {
	v.fields = v.fields[:0]
}

// snapshot returns the current fields as a slice sharing the vector's
// backing array; callers (the row callback) must treat it as valid only
// until reset is called after the callback returns.
func (v *fieldVec) snapshot() []Field {
	return v.fields
}
