package taskview

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"exchangedesk/internal/model"
)

type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupStatus   GroupBy = "status"
	GroupPriority GroupBy = "priority"
	GroupAssignee GroupBy = "assignee"
	GroupDueDate  GroupBy = "due_date"
)

// ParseGroupBy maps user input to a GroupBy; unknown values mean no grouping.
func ParseGroupBy(s string) GroupBy {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupStatus, GroupPriority, GroupAssignee, GroupDueDate:
		return g
	}
	return GroupNone
}

const (
	allGroupKey     = "all"
	noStatusLabel   = "No Status"
	noPriorityLabel = "No Priority"
)

// Group is one bucket of a grouped task list. Key is the raw value of the
// grouped field ("" when unset) and is what a board writes back to a task
// dropped into the bucket.
type Group struct {
	Key   string       `json:"key"`
	Label string       `json:"label"`
	Tasks []model.Task `json:"tasks"`
}

// Len is the number of tasks in the group.
func (g Group) Len() int { return len(g.Tasks) }

func groupKey(t model.Task, by GroupBy, now time.Time) (key, label string) {
	switch by {
	case GroupStatus:
		if t.Status == "" {
			return "", noStatusLabel
		}
		return string(t.Status), string(t.Status)
	case GroupPriority:
		if t.Priority == "" {
			return "", noPriorityLabel
		}
		return string(t.Priority), string(t.Priority)
	case GroupAssignee:
		label = AssigneeKey(t)
		if t.AssigneeID != nil {
			return t.AssigneeID.String(), label
		}
		return "", label
	case GroupDueDate:
		b := ClassifyDue(t.DueDate, now)
		return string(b), b.Label()
	}
	return allGroupKey, "All Tasks"
}

// GroupTasks sorts tasks by spec and partitions them by the grouped field.
// Every task lands in exactly one group; only groups that received a task
// are returned, except GroupNone which always yields a single group.
func GroupTasks(tasks []model.Task, by GroupBy, spec SortSpec, now time.Time) []Group {
	sorted := Sort(tasks, spec)
	if by == "" {
		by = GroupNone
	}

	index := make(map[string]int)
	var groups []Group
	for _, t := range sorted {
		key, label := groupKey(t, by, now)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: label})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	if by == GroupNone && len(groups) == 0 {
		groups = []Group{{Key: allGroupKey, Label: "All Tasks", Tasks: []model.Task{}}}
	}

	orderGroups(groups, by)
	return groups
}

// FixedGroups returns the empty buckets a grouping always shows, in display
// order. Assignee grouping has no fixed buckets.
func FixedGroups(by GroupBy) []Group {
	var out []Group
	switch by {
	case GroupStatus:
		for _, s := range model.TaskStatuses {
			out = append(out, Group{Key: string(s), Label: string(s)})
		}
	case GroupPriority:
		for _, p := range model.TaskPriorities {
			out = append(out, Group{Key: string(p), Label: string(p)})
		}
	case GroupDueDate:
		for _, b := range DueBuckets {
			out = append(out, Group{Key: string(b), Label: b.Label()})
		}
	case GroupAssignee:
	default:
		out = append(out, Group{Key: allGroupKey, Label: "All Tasks"})
	}
	for i := range out {
		out[i].Tasks = []model.Task{}
	}
	return out
}

// WithFixedGroups merges groups into the fixed buckets of by so empty
// buckets are kept. Groups outside the fixed set follow in their own order.
func WithFixedGroups(groups []Group, by GroupBy) []Group {
	out := FixedGroups(by)
	index := make(map[string]int, len(out))
	for i, g := range out {
		index[g.Key] = i
	}
	for _, g := range groups {
		if i, ok := index[g.Key]; ok {
			out[i].Tasks = append(out[i].Tasks, g.Tasks...)
			continue
		}
		index[g.Key] = len(out)
		out = append(out, g)
	}
	return out
}

func orderGroups(groups []Group, by GroupBy) {
	switch by {
	case GroupStatus:
		slices.SortStableFunc(groups, byRank(statusRank))
	case GroupPriority:
		slices.SortStableFunc(groups, byRank(priorityRank))
	case GroupDueDate:
		slices.SortStableFunc(groups, byRank(func(k string) int {
			return slices.Index(DueBuckets, DueBucket(k))
		}))
	case GroupAssignee:
		col := collate.New(language.English)
		slices.SortStableFunc(groups, func(a, b Group) int {
			switch {
			case a.Key == "" && b.Key == "":
				return 0
			case a.Key == "":
				return 1
			case b.Key == "":
				return -1
			}
			return col.CompareString(a.Label, b.Label)
		})
	}
}

func byRank(rank func(key string) int) func(a, b Group) int {
	return func(a, b Group) int { return rank(a.Key) - rank(b.Key) }
}

// Unknown and unset keys rank after the known ones.
func statusRank(k string) int {
	if i := slices.Index(model.TaskStatuses, model.TaskStatus(k)); i >= 0 {
		return i
	}
	return len(model.TaskStatuses)
}

func priorityRank(k string) int {
	if i := slices.Index(model.TaskPriorities, model.TaskPriority(k)); i >= 0 {
		return i
	}
	return len(model.TaskPriorities)
}
