package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"lifeboard/internal/model"
	"lifeboard/internal/priority"
)

// digestTaskLimit caps how many tasks the daily digest lists.
const digestTaskLimit = 10

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	taskSvc  *TaskService
	habitSvc *HabitService
}

func NewReminderService(taskSvc *TaskService, habitSvc *HabitService) *ReminderService {
	return &ReminderService{taskSvc: taskSvc, habitSvc: habitSvc}
}

// DailyDigest summarizes the user's top open tasks by score and the active
// habits still below target today. The text uses Telegram HTML markup.
func (s *ReminderService) DailyDigest(ctx context.Context, user *model.User, now time.Time) (string, error) {
	open := false
	tasks, err := s.taskSvc.List(ctx, user, priority.Filter{
		Completed: &open,
		SortBy:    priority.SortByScore,
		Limit:     digestTaskLimit,
	}, now)
	if err != nil {
		return "", err
	}

	habits, err := s.habitSvc.List(ctx, user, true, now)
	if err != nil {
		return "", err
	}
	var due []HabitStatus
	for _, h := range habits {
		if h.Frequency == model.FrequencyDaily && !h.IsCompleted {
			due = append(due, h)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Top tasks</b>\n")
	if len(tasks) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, task := range tasks {
			builder.WriteString(formatDigestTask(task, now))
		}
	}

	builder.WriteString("\n🌱 <b>Habits still due today</b>\n")
	if len(due) == 0 {
		builder.WriteString("— all done\n")
	} else {
		for _, h := range due {
			builder.WriteString(fmt.Sprintf("%s %s · %d/%d (%d%%)\n",
				habitIcon(h), html.EscapeString(h.Title), h.TodayCount, h.TargetCount, h.Progress))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatDigestTask(task TaskView, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.Due != nil {
		switch {
		case now.After(*task.Due):
			icon = "⚠️"
		case task.Urgency >= 4:
			icon = "⏳"
		}
	}

	sb.WriteString(fmt.Sprintf("%s %s · score %d", icon, html.EscapeString(strings.TrimSpace(task.Title)), task.Score))

	if task.ProjectTitle != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(task.ProjectTitle)))
	}

	if task.Due != nil {
		if now.After(*task.Due) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ was due %s — <b>overdue</b>", task.Due.Format("2006-01-02")))
		} else {
			daysLeft := int(task.Due.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%d day(s) left", task.Due.Format("2006-01-02"), daysLeft))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}

func habitIcon(h HabitStatus) string {
	if h.Icon != "" {
		return h.Icon
	}
	return "🔁"
}
