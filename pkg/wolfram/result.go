package wolfram

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Err returns the upstream error as an error value, or nil.
func (r *QueryResult) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error
}

// PrimaryPod returns the first pod flagged as primary. Upstream does not promise that the
// flag is unique.
func (r *QueryResult) PrimaryPod() (Pod, bool) {
	for _, pod := range r.Pods {
		if pod.IsPrimary {
			return pod, true
		}
	}
	return Pod{}, false
}

func (r *QueryResult) PodByID(id string) (Pod, bool) {
	for _, pod := range r.Pods {
		if pod.ID == id {
			return pod, true
		}
	}
	return Pod{}, false
}

// PodsByPosition returns the pods sorted by ascending position. Document order breaks ties.
func (r *QueryResult) PodsByPosition() []Pod {
	pods := slices.Clone(r.Pods)
	if pods == nil {
		pods = []Pod{}
	}
	slices.SortStableFunc(pods, func(a, b Pod) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return pods
}

// Selected returns the option upstream applied. The current selection is a 1-based index
// into the options; a value that is not an index is matched against option names.
func (a Assumption) Selected() (AssumptionOption, bool) {
	if a.CurrentSelection == nil {
		return AssumptionOption{}, false
	}
	current := strings.TrimSpace(*a.CurrentSelection)
	if idx, err := strconv.Atoi(current); err == nil {
		if idx >= 1 && idx <= len(a.Options) {
			return a.Options[idx-1], true
		}
		return AssumptionOption{}, false
	}
	for _, opt := range a.Options {
		if opt.Name == current {
			return opt, true
		}
	}
	return AssumptionOption{}, false
}

// PlainText joins the non-empty subpod texts of the pod with newlines.
func (p Pod) PlainText() string {
	parts := make([]string, 0, len(p.Subpods))
	for _, sub := range p.Subpods {
		if text := strings.TrimSpace(sub.PlainText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
