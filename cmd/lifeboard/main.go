package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lifeboard/internal/catalog"
	"lifeboard/internal/config"
	"lifeboard/internal/notify"
	"lifeboard/internal/repository"
	"lifeboard/internal/server"
	"lifeboard/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:           "lifeboard",
		Short:         "Personal board for tasks, habits, notes and a watchlist",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), useraddCmd(), digestCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("lifeboard: %v", err)
	}
}

// app bundles everything the commands need.
type app struct {
	cfg      config.Config
	userRepo *repository.UserRepository
	taskSvc  *service.TaskService
	habitSvc *service.HabitService
	noteSvc  *service.NoteService
	movieSvc *service.MovieService
	reminder *service.ReminderService
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	movieRepo := repository.NewMovieRepository(db)

	cat := catalog.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey)

	taskSvc := service.NewTaskService(taskRepo, cfg.CommitTimeout)
	habitSvc := service.NewHabitService(habitRepo, cfg.CommitTimeout)
	noteSvc := service.NewNoteService(noteRepo, nil, cfg.CommitTimeout)
	movieSvc := service.NewMovieService(movieRepo, cat, cfg.CommitTimeout)
	reminder := service.NewReminderService(taskSvc, habitSvc)

	return &app{
		cfg:      cfg,
		userRepo: userRepo,
		taskSvc:  taskSvc,
		habitSvc: habitSvc,
		noteSvc:  noteSvc,
		movieSvc: movieSvc,
		reminder: reminder,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, the scheduler and the digest notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp()
			if err != nil {
				return err
			}

			scheduler := service.NewSchedulerService(time.Local)

			// Periodic sweep bounds how long stale optimistic state can
			// survive a hung request.
			if _, err := scheduler.ScheduleInterval(a.cfg.CacheSweepInterval, func() {
				a.taskSvc.InvalidateCaches()
				a.habitSvc.InvalidateCaches()
				a.noteSvc.InvalidateCaches()
				a.movieSvc.InvalidateCaches()
			}); err != nil {
				return fmt.Errorf("schedule cache sweep: %w", err)
			}

			if a.cfg.TelegramToken != "" && a.cfg.DigestTime != "" {
				notifier, err := notify.New(a.cfg.TelegramToken, a.userRepo, a.reminder)
				if err != nil {
					return fmt.Errorf("notifier: %w", err)
				}
				if _, err := scheduler.ScheduleDaily(a.cfg.DigestTime, func() {
					jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					if err := notifier.SendDailyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
						log.Printf("[warn] digest: %v", err)
					}
				}); err != nil {
					return fmt.Errorf("schedule digest: %w", err)
				}
			}

			scheduler.Start()
			defer scheduler.Stop()

			srv := server.New(a.userRepo, a.taskSvc, a.habitSvc, a.noteSvc, a.movieSvc)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run(a.cfg.Addr) }()

			log.Printf("[info] lifeboard listening on %s", a.cfg.Addr)
			select {
			case <-ctx.Done():
				log.Println("[info] shutdown")
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
}

func useraddCmd() *cobra.Command {
	var name string
	var chatID int64

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a user and print their API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			user, err := a.userRepo.Create(cmd.Context(), name, chatID)
			if err != nil {
				return err
			}
			fmt.Printf("user %d (%s) created\ntoken: %s\n", user.ID, user.Name, user.APIToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().Int64Var(&chatID, "telegram-chat-id", 0, "Telegram chat id for the daily digest")
	return cmd
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the daily digest once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			if a.cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_TOKEN is required for digests")
			}
			notifier, err := notify.New(a.cfg.TelegramToken, a.userRepo, a.reminder)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return notifier.SendDailyDigests(ctx)
		},
	}
}
