package reconcile

import (
	"fmt"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/snapshot"
)

// BuildPlan runs every handler against the parsed declaration and snapshot and
// returns the resulting stages in dependency order. It does NOT contact the
// device; use Engine.Apply for that.
func BuildPlan(parsed *declaration.Parsed, snap snapshot.Snapshot, handlers ...Handler) (*Plan, error) {
	ordered, err := orderHandlers(handlers)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Tenants: append([]string{}, parsed.Tenants...),
		Stages:  make([]Stage, 0, len(ordered)),
	}
	plan.Summary.Entities = parsed.Len()

	for _, h := range ordered {
		upserts, err := h.LeafSettings(parsed)
		if err != nil {
			return nil, &DomainError{Domain: h.Name(), Op: OpPlan, Err: err}
		}
		commands, err := h.Commands(parsed, snap)
		if err != nil {
			return nil, &DomainError{Domain: h.Name(), Op: OpPlan, Err: err}
		}

		plan.Stages = append(plan.Stages, Stage{Domain: h.Name(), Upserts: upserts, Commands: commands})
		plan.Summary.Upserts += len(upserts)
		for _, c := range commands {
			switch c.Method {
			case device.MethodCreate:
				plan.Summary.Creates++
			case device.MethodModify:
				plan.Summary.Modifies++
			}
		}
	}

	return plan, nil
}

// orderHandlers sorts handlers so that every handler follows the handlers named
// by its After(). Independent handlers keep their registration order.
func orderHandlers(handlers []Handler) ([]Handler, error) {
	byName := make(map[string]int, len(handlers))
	for i, h := range handlers {
		if _, dup := byName[h.Name()]; dup {
			return nil, fmt.Errorf("handler %s registered twice", h.Name())
		}
		byName[h.Name()] = i
	}
	for _, h := range handlers {
		for _, dep := range h.After() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("handler %s depends on unknown domain %s", h.Name(), dep)
			}
		}
	}

	placed := make([]bool, len(handlers))
	out := make([]Handler, 0, len(handlers))
	for len(out) < len(handlers) {
		progressed := false
		for i, h := range handlers {
			if placed[i] || !depsPlaced(h, byName, placed) {
				continue
			}
			placed[i] = true
			out = append(out, h)
			progressed = true
			// Restart so an earlier-registered handler unblocked by h goes next.
			break
		}
		if !progressed {
			var stuck []string
			for i, h := range handlers {
				if !placed[i] {
					stuck = append(stuck, h.Name())
				}
			}
			return nil, fmt.Errorf("handler dependency cycle among %v", stuck)
		}
	}
	return out, nil
}

func depsPlaced(h Handler, byName map[string]int, placed []bool) bool {
	for _, dep := range h.After() {
		if !placed[byName[dep]] {
			return false
		}
	}
	return true
}
