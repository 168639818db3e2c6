package concrete

// Input names one free bit-vector input and its declared width, as
// discovered from a pipeline's top-level parameters.
type Input struct {
	Name  string
	Width uint
}

// patterns mirrors the fixed register patterns a register-level verifier
// sweeps first (all-zero, all-one, alternating, single/double bit): a
// small, fixed set of bit patterns that tends to expose the overwhelming
// majority of real mismatches without an exhaustive sweep.
var patterns = []uint64{
	0x0000000000000000,
	0xFFFFFFFFFFFFFFFF,
	0x5555555555555555,
	0xAAAAAAAAAAAAAAAA,
	0x0000000000000001,
	0x8000000000000000,
	0x0F0F0F0F0F0F0F0F,
	0x1234567890ABCDEF,
}

// StandardVectors builds one Vector per pattern, truncated to each input's
// declared width and shared across every input (so widths differ but the
// underlying bit pattern lines up across inputs of a pair run together).
func StandardVectors(inputs []Input) []Vector {
	vectors := make([]Vector, len(patterns))
	for i, p := range patterns {
		entries := make([]BVEntry, len(inputs))
		for j, in := range inputs {
			entries[j] = BVEntry{Name: in.Name, Value: p, Width: in.Width}
		}
		vectors[i] = BVVector(entries...)
	}
	return vectors
}
