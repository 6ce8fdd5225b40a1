package audio

// Source produces interleaved PCM.
type Source interface {
	// Read fills dst and returns the number of non-silent samples written.
	Read(dst []int16) int
}

type input struct {
	name string
	src  Source
	gain float64
}

// Mixer applies a gain per input and sums the inputs into one signal,
// clipping to the int16 range.
type Mixer struct {
	inputs  []input
	scratch []int16
	acc     []float64
	closed  bool
}

// NewMixer creates an empty mixer.
func NewMixer() *Mixer {
	return &Mixer{}
}

// Connect adds a named input. Connecting after Close is ignored.
func (m *Mixer) Connect(name string, src Source, gain float64) {
	if m.closed || src == nil {
		return
	}
	m.inputs = append(m.inputs, input{name: name, src: src, gain: gain})
}

// SetGain changes the gain of a named input.
func (m *Mixer) SetGain(name string, gain float64) bool {
	for i := range m.inputs {
		if m.inputs[i].name == name {
			m.inputs[i].gain = gain
			return true
		}
	}
	return false
}

// Inputs returns the number of connected inputs.
func (m *Mixer) Inputs() int { return len(m.inputs) }

// Mix writes the next block of mixed output into dst.
func (m *Mixer) Mix(dst []int16) {
	switch len(m.inputs) {
	case 0:
		clear(dst)
	case 1:
		in := m.inputs[0]
		in.src.Read(dst)
		if in.gain != 1 {
			for i, s := range dst {
				dst[i] = clip(float64(s) * in.gain)
			}
		}
	default:
		if cap(m.scratch) < len(dst) {
			m.scratch = make([]int16, len(dst))
			m.acc = make([]float64, len(dst))
		}
		buf := m.scratch[:len(dst)]
		acc := m.acc[:len(dst)]
		clear(acc)
		for _, in := range m.inputs {
			in.src.Read(buf)
			for i, s := range buf {
				acc[i] += float64(s) * in.gain
			}
		}
		for i, v := range acc {
			dst[i] = clip(v)
		}
	}
}

// Close disconnects every input and returns how many were released.
// Later calls release nothing.
func (m *Mixer) Close() int {
	if m.closed {
		return 0
	}
	m.closed = true
	n := len(m.inputs)
	m.inputs = nil
	m.scratch = nil
	m.acc = nil
	return n
}

// Closed reports whether Close has been called.
func (m *Mixer) Closed() bool { return m.closed }
