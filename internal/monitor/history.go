package monitor

// History keeps the most recent temperatures, oldest first. Pushing past
// capacity evicts the oldest value.
type History struct {
	values   []float64
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}

	return &History{
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

func (h *History) Push(value float64) {
	if len(h.values) >= h.capacity {
		copy(h.values, h.values[1:])
		h.values[len(h.values)-1] = value
		return
	}
	h.values = append(h.values, value)
}

// Values returns a copy of the retained window.
func (h *History) Values() []float64 {
	values := make([]float64, len(h.values))
	copy(values, h.values)

	return values
}

func (h *History) Len() int {
	return len(h.values)
}

func (h *History) Capacity() int {
	return h.capacity
}

// Stats returns min, max and mean of the window. All zero when empty.
func Stats(values []float64) (lowest, highest, mean float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	lowest, highest = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
		sum += v
	}

	return lowest, highest, sum / float64(len(values))
}
