package match

// Replay re-applies a recorded history against a fresh status, using each
// entry's sampled (nominal) duration. Because effects are deterministic,
// the replayed Result has the same score and history as the original.
//
// Preconditions are not re-checked: the history already passed them.
func Replay(cfg Config, actions Actions, strategyID string, history []Step) (Result, error) {
	if err := cfg.Timing.Validate(); err != nil {
		return Result{}, err
	}
	s := NewStatus(cfg.Timing, cfg.Setup)

	for i, h := range history {
		if h.Action == PassAction {
			s.pass()
			continue
		}
		action, ok := actions.Lookup(h.Action)
		if !ok {
			err := &Error{
				Kind:   KindInvalidActionChoice,
				Action: h.Action,
				Step:   i,
				Reason: "not registered",
			}
			return newResult("", strategyID, s, err), err
		}
		if _, err := s.applySampled(action, h.Nominal); err != nil {
			return newResult("", strategyID, s, err), err
		}
	}
	return newResult("", strategyID, s, nil), nil
}
