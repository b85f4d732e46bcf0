package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/aryan2621/tasker/internal/model"
	"github.com/aryan2621/tasker/internal/store"
	"github.com/aryan2621/tasker/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create and manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Long: `Add a task to the local database. The reminder time accepts natural
language, e.g. "tomorrow at 9am" or "in 2 hours".

With no arguments on a terminal, an interactive form prompts for the
details instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		userID := a.identity.CurrentUserID()
		if userID == "" {
			return fmt.Errorf("not signed in; run 'tasker login <user-id>' first")
		}

		title := strings.Join(args, " ")
		category, _ := cmd.Flags().GetString("category")
		priority, _ := cmd.Flags().GetString("priority")
		recur, _ := cmd.Flags().GetString("recur")
		remindAt, _ := cmd.Flags().GetString("at")
		description, _ := cmd.Flags().GetString("desc")
		duration, _ := cmd.Flags().GetInt("duration")

		if title == "" && ui.Interactive() {
			if err := promptTaskForm(&title, &description, &category, &priority, &remindAt); err != nil {
				return err
			}
		}
		if title == "" {
			return fmt.Errorf("a task title is required")
		}

		t := model.NewTask(userID, title, time.Now())
		t.Description = description
		t.DurationMinutes = duration

		if category != "" {
			c, err := model.ParseCategory(category)
			if err != nil {
				return err
			}
			t.Category = c
		}
		if priority != "" {
			p, err := model.ParsePriority(priority)
			if err != nil {
				return err
			}
			t.Priority = p
		}
		if recur != "" {
			r, err := model.ParseRecurrence(recur)
			if err != nil {
				return err
			}
			t.Recurrence = r
		}
		if remindAt != "" {
			at, err := parseWhen(remindAt)
			if err != nil {
				return err
			}
			t.ReminderAt = &at
		}

		if err := a.tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		fmt.Printf("%s %s\n", ui.Success("Added"), t.Title)
		if t.ReminderAt != nil {
			fmt.Printf("  reminder at %s\n", ui.Accent(t.ReminderAt.Format(time.RFC1123)))
		}
		fmt.Printf("  id: %s\n", ui.Muted(t.ID))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		all, _ := cmd.Flags().GetBool("all")
		completed, _ := cmd.Flags().GetBool("completed")

		filter := store.TaskFilter{}
		if !all {
			done := completed
			filter.Completed = &done
		}

		tasks, err := a.tasks.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Println(ui.Muted("No tasks."))
			return nil
		}

		for _, t := range tasks {
			printTask(t)
		}
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Long: `Mark a task completed. Completion also records a progress entry,
advances the daily streak, and awards any newly earned achievements.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.tasks.Complete(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Printf("%s %s\n", ui.Success("Completed"), t.Title)
		if s, err := a.streak.Current(ctx); err == nil && s != nil {
			fmt.Printf("  streak: %s (best %d)\n", ui.Accent(fmt.Sprintf("%d days", s.CurrentStreak)), s.LongestStreak)
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tasks.Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Printf("%s %s\n", ui.Warn("Deleted"), args[0])
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show current streak and achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.streak.Current(ctx)
		if err != nil {
			return fmt.Errorf("failed to read streak: %w", err)
		}
		if s == nil {
			fmt.Println(ui.Muted("No streak yet. Complete a task to start one."))
		} else {
			fmt.Printf("Current streak: %s\n", ui.Accent(fmt.Sprintf("%d days", s.CurrentStreak)))
			fmt.Printf("Longest streak: %d days\n", s.LongestStreak)
			if s.LastCompletedDate != nil {
				fmt.Printf("Last completion: %s\n", s.LastCompletedDate.Format("2006-01-02"))
			}
		}

		awards, err := a.awards.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to read achievements: %w", err)
		}
		if len(awards) > 0 {
			fmt.Println()
			fmt.Println("Achievements:")
			for _, aw := range awards {
				fmt.Printf("  %s  %s\n", ui.Success(aw.Title), ui.Muted(aw.EarnedAt.Format("2006-01-02")))
			}
		}
		return nil
	},
}

func printTask(t *model.Task) {
	mark := "[ ]"
	if t.IsCompleted {
		mark = ui.Success("[x]")
	}
	line := fmt.Sprintf("%s %s", mark, t.Title)
	if t.ReminderAt != nil {
		line += "  " + ui.Muted("@ "+t.ReminderAt.Format("Jan 2 15:04"))
	}
	if t.SyncStatus.Dirty() {
		line += "  " + ui.Warn("(unsynced)")
	}
	fmt.Println(line)
	fmt.Printf("    %s %s %s  %s\n", ui.Muted(string(t.Category)), ui.Muted(string(t.Priority)), ui.Muted(string(t.Recurrence)), ui.Muted(t.ID))
}

// promptTaskForm collects task details interactively.
func promptTaskForm(title, description, category, priority, remindAt *string) error {
	categoryOptions := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		categoryOptions[i] = huh.NewOption(string(c), string(c))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(title),
			huh.NewInput().Title("Description").Value(description),
			huh.NewSelect[string]().Title("Category").Options(categoryOptions...).Value(category),
			huh.NewSelect[string]().Title("Priority").
				Options(
					huh.NewOption("Low", string(model.PriorityLow)),
					huh.NewOption("Medium", string(model.PriorityMedium)),
					huh.NewOption("High", string(model.PriorityHigh)),
				).Value(priority),
			huh.NewInput().Title("Remind at (e.g. tomorrow 9am)").Value(remindAt),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return form.Run()
}

// parseWhen turns natural language like "tomorrow at 9am" into a time.
func parseWhen(text string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", text, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not understand time %q", text)
	}
	return result.Time, nil
}

func init() {
	taskAddCmd.Flags().String("at", "", "reminder time (natural language)")
	taskAddCmd.Flags().String("category", "", "category (WORK, STUDY, HEALTH, PERSONAL, CUSTOM)")
	taskAddCmd.Flags().String("priority", "", "priority (LOW, MEDIUM, HIGH)")
	taskAddCmd.Flags().String("recur", "", "recurrence (ONCE, DAILY, WEEKLY, MONTHLY)")
	taskAddCmd.Flags().String("desc", "", "description")
	taskAddCmd.Flags().Int("duration", 0, "expected duration in minutes")

	taskListCmd.Flags().Bool("all", false, "include completed tasks")
	taskListCmd.Flags().Bool("completed", false, "show only completed tasks")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(streakCmd)
}
