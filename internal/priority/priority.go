// Package priority computes task scores and decides display order.
package priority

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

// MaxUrgency is the top of the urgency scale, shared with the importance
// and duration scales.
const MaxUrgency = 5

// ImportanceLabels maps importance levels to human labels.
var ImportanceLabels = map[int]string{
	0: "someday",
	1: "low",
	2: "normal",
	3: "high",
	4: "critical",
	5: "must do",
}

// DurationLabels maps duration levels to human labels.
var DurationLabels = map[int]string{
	0: "minutes",
	1: "an hour",
	2: "a few hours",
	3: "a day",
	4: "several days",
	5: "a week or more",
}

// Urgency derives the urgency level from the distance to the due date.
// Overdue tasks sit at the maximum; tasks without a due date at zero.
// The value never increases as the due date moves further into the future.
func Urgency(due *time.Time, now time.Time) int {
	if due == nil {
		return 0
	}
	days := due.Sub(now).Hours() / 24
	switch {
	case days < 1:
		return 5
	case days < 3:
		return 4
	case days < 7:
		return 3
	case days < 14:
		return 2
	case days < 30:
		return 1
	default:
		return 0
	}
}

// Score is the priority ranking of a task. Pure integer arithmetic,
// recomputed on every read rather than stored.
func Score(importance, urgency, duration int) int {
	return importance*urgency - duration
}

// TaskScore computes the score of a task at the given instant.
func TaskScore(t model.Task, now time.Time) int {
	return Score(t.Importance, Urgency(t.Due, now), t.Duration)
}

// SortField selects the primary sort key for task lists.
type SortField string

const (
	SortByScore   SortField = "score"
	SortByDue     SortField = "due"
	SortByTitle   SortField = "title"
	SortByCreated SortField = "created"
)

// Filter describes which tasks to show and in what order.
// Completed nil means either; Projects and ExcludedProjects are mutually
// exclusive per project name.
type Filter struct {
	Completed        *bool
	Projects         []string
	ExcludedProjects []string
	DueBefore        *time.Time
	SortBy           SortField
	Limit            int
	Offset           int
}

// Validate rejects filters where a project is both included and excluded.
func (f Filter) Validate() error {
	excluded := make(map[string]struct{}, len(f.ExcludedProjects))
	for _, p := range f.ExcludedProjects {
		excluded[p] = struct{}{}
	}
	for _, p := range f.Projects {
		if _, ok := excluded[p]; ok {
			return apperr.Newf(apperr.KindValidation, "project %q both included and excluded", p)
		}
	}
	switch f.SortBy {
	case "", SortByScore, SortByDue, SortByTitle, SortByCreated:
	default:
		return apperr.Newf(apperr.KindValidation, "unknown sort field %q", f.SortBy)
	}
	return nil
}

// Key renders the filter as a canonical cache key. Equal filters always
// produce equal keys.
func (f Filter) Key() string {
	v := url.Values{}
	if f.Completed != nil {
		v.Set("completed", fmt.Sprintf("%t", *f.Completed))
	}
	if len(f.Projects) > 0 {
		p := append([]string(nil), f.Projects...)
		sort.Strings(p)
		v.Set("projects", strings.Join(p, ","))
	}
	if len(f.ExcludedProjects) > 0 {
		p := append([]string(nil), f.ExcludedProjects...)
		sort.Strings(p)
		v.Set("exclude", strings.Join(p, ","))
	}
	if f.DueBefore != nil {
		v.Set("due_before", f.DueBefore.UTC().Format(time.RFC3339))
	}
	if f.SortBy != "" {
		v.Set("sort", string(f.SortBy))
	}
	if f.Limit > 0 {
		v.Set("limit", fmt.Sprintf("%d", f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", fmt.Sprintf("%d", f.Offset))
	}
	return v.Encode()
}

// Apply filters, sorts and paginates tasks. The default order is score
// descending with a case-sensitive title tie-break ascending. The input
// slice is not modified.
func Apply(tasks []model.Task, now time.Time, f Filter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	included := toSet(f.Projects)
	excluded := toSet(f.ExcludedProjects)
	for _, t := range tasks {
		if f.Completed != nil && t.Completed() != *f.Completed {
			continue
		}
		if len(included) > 0 {
			if _, ok := included[t.ProjectTitle]; !ok {
				continue
			}
		}
		if len(excluded) > 0 {
			if _, ok := excluded[t.ProjectTitle]; ok {
				continue
			}
		}
		if f.DueBefore != nil && (t.Due == nil || !t.Due.Before(*f.DueBefore)) {
			continue
		}
		out = append(out, t)
	}

	sortTasks(out, now, f.SortBy)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []model.Task{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

func sortTasks(tasks []model.Task, now time.Time, field SortField) {
	byTitle := func(i, j int) bool { return tasks[i].Title < tasks[j].Title }
	switch field {
	case SortByTitle:
		sort.SliceStable(tasks, byTitle)
	case SortByCreated:
		sort.SliceStable(tasks, func(i, j int) bool {
			if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
				return byTitle(i, j)
			}
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	case SortByDue:
		sort.SliceStable(tasks, func(i, j int) bool {
			switch {
			case tasks[i].Due == nil && tasks[j].Due == nil:
				return byTitle(i, j)
			case tasks[i].Due == nil:
				return false
			case tasks[j].Due == nil:
				return true
			case tasks[i].Due.Equal(*tasks[j].Due):
				return byTitle(i, j)
			default:
				return tasks[i].Due.Before(*tasks[j].Due)
			}
		})
	default: // score descending
		sort.SliceStable(tasks, func(i, j int) bool {
			si, sj := TaskScore(tasks[i], now), TaskScore(tasks[j], now)
			if si == sj {
				return byTitle(i, j)
			}
			return si > sj
		})
	}
}

func toSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// ProjectState is the tri-state of a project in the display filter.
type ProjectState int

const (
	ProjectNeutral ProjectState = iota
	ProjectIncluded
	ProjectExcluded
)

// ProjectFilter tracks which projects are shown or hidden. A project is
// either included, excluded or neutral, never included and excluded at once.
type ProjectFilter struct {
	included map[string]struct{}
	excluded map[string]struct{}
}

func NewProjectFilter() *ProjectFilter {
	return &ProjectFilter{
		included: make(map[string]struct{}),
		excluded: make(map[string]struct{}),
	}
}

// Include marks the project as "only this"; it leaves the excluded set.
func (p *ProjectFilter) Include(name string) {
	delete(p.excluded, name)
	p.included[name] = struct{}{}
}

// Exclude hides the project; it leaves the included set.
func (p *ProjectFilter) Exclude(name string) {
	delete(p.included, name)
	p.excluded[name] = struct{}{}
}

// Clear resets the project to neutral.
func (p *ProjectFilter) Clear(name string) {
	delete(p.included, name)
	delete(p.excluded, name)
}

// State reports the current state of the project.
func (p *ProjectFilter) State(name string) ProjectState {
	if _, ok := p.included[name]; ok {
		return ProjectIncluded
	}
	if _, ok := p.excluded[name]; ok {
		return ProjectExcluded
	}
	return ProjectNeutral
}

// Included returns the included project names, sorted.
func (p *ProjectFilter) Included() []string { return sortedKeys(p.included) }

// Excluded returns the excluded project names, sorted.
func (p *ProjectFilter) Excluded() []string { return sortedKeys(p.excluded) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
