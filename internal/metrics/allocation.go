package metrics

// Resolution strategies used as the "strategy" label.
const (
	StrategyFixed   = "fixed"
	StrategyDynamic = "dynamic"
	StrategyKeep    = "keep"
)

// IncrementAssigned counts a number written with the given strategy.
func (m *Metrics) IncrementAssigned(strategy string) {
	m.safeExecute("IncrementAssigned", func() {
		m.NumbersAssignedTotal.WithLabelValues(strategy).Inc()
	})
}

// AddEvictions counts registrants moved off a claimed number.
func (m *Metrics) AddEvictions(n int) {
	if n <= 0 {
		return
	}
	m.safeExecute("AddEvictions", func() {
		m.EvictionsTotal.Add(float64(n))
	})
}

// IncrementExhausted counts an operation rejected for lack of free numbers.
func (m *Metrics) IncrementExhausted() {
	m.safeExecute("IncrementExhausted", func() {
		m.AllocationExhaustedTotal.Inc()
	})
}

// IncrementRetries counts a retried allocation transaction.
func (m *Metrics) IncrementRetries() {
	m.safeExecute("IncrementRetries", func() {
		m.AllocationRetriesTotal.Inc()
	})
}

// SetConflicts replaces the conflict gauge with counts per kind. Kinds missing from
// counts are reset to zero.
func (m *Metrics) SetConflicts(kinds []string, counts map[string]int) {
	m.safeExecute("SetConflicts", func() {
		for _, k := range kinds {
			m.NumberConflicts.WithLabelValues(k).Set(float64(counts[k]))
		}
	})
}

// IncrementEmail counts an email send attempt.
func (m *Metrics) IncrementEmail(template string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.safeExecute("IncrementEmail", func() {
		m.EmailsSentTotal.WithLabelValues(template, result).Inc()
	})
}
