package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read backend notifications",
	}

	cmd.AddCommand(
		listNotificationsCmd(),
		readNotificationCmd(),
		unreadCountCmd(),
		watchNotificationsCmd(),
	)

	return cmd
}

func listNotificationsCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			items, err := s.api.ListNotifications(cmd.Context(), unread)
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(items) == 0 {
				cmd.Println("No notifications.")
				return
			}

			table := newTable(cmd.OutOrStdout(), "ID", "", "Type", "Title", "Message", "Created")
			for _, n := range items {
				marker := ""
				if !n.IsRead {
					marker = "•"
				}
				table.Append([]string{strconv.Itoa(n.ID), marker, n.NotificationType, n.Title, n.Message, n.CreatedAt})
			}
			table.Render()
		},
	}

	cmd.Flags().BoolVarP(&unread, "unread", "u", false, "Show unread notifications only")

	return cmd
}

func readNotificationCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [notificationID]",
		Short: "Mark a notification, or all of them with --all, as read",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if all == (len(args) == 1) {
				fail(cmd, invalid(fmt.Errorf("pass a notification ID or --all, but not both")))
				return
			}
			var id int
			if !all {
				var err error
				if id, err = parseID("notification", args[0]); err != nil {
					fail(cmd, err)
					return
				}
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}

			if all {
				marked, err := s.api.MarkAllNotificationsRead(cmd.Context())
				if len(marked) > 0 || err == nil {
					cmd.Printf("Marked %d notifications as read.\n", len(marked))
				}
				if err != nil {
					fail(cmd, err)
				}
				return
			}
			if _, err := s.api.MarkNotificationRead(cmd.Context(), id); err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Notification %d marked as read.\n", id)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Mark every unread notification as read")

	return cmd
}

func unreadCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Print the number of unread notifications",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			n, err := s.api.UnreadCount(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Println(n)
		},
	}
}

// watchNotificationsCmd polls for unread notifications until interrupted.
func watchNotificationsCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print new notifications as they arrive",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			if !cmd.Flags().Changed("interval") {
				interval = s.cfg.WatchInterval
			}
			if interval < time.Second {
				fail(cmd, invalid(fmt.Errorf("interval must be at least 1s, got %s", interval)))
				return
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w := newNotificationWatcher(s.api, cmd.OutOrStdout())
			if err := w.run(ctx, interval); err != nil {
				fail(cmd, err)
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Polling interval (default from config)")

	return cmd
}

type notificationLister interface {
	ListNotifications(ctx context.Context, unreadOnly bool) ([]client.Notification, error)
}

// notificationWatcher prints each unread notification once.
type notificationWatcher struct {
	api notificationLister
	out io.Writer

	mu   sync.Mutex
	seen map[int]bool
	err  error
}

func newNotificationWatcher(api notificationLister, out io.Writer) *notificationWatcher {
	return &notificationWatcher{api: api, out: out, seen: make(map[int]bool)}
}

// run polls every interval until ctx is done. A lost session ends the watch
// with that error; other failures are logged and retried on the next tick.
func (w *notificationWatcher) run(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(interval).SingletonMode().Do(w.poll, ctx, cancel); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}
	s.StartAsync()
	log.Info().Dur("interval", interval).Msg("Watching notifications")

	<-ctx.Done()
	s.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *notificationWatcher) poll(ctx context.Context, cancel context.CancelFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	items, err := w.api.ListNotifications(ctx, true)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if isSessionLost(err) {
			w.err = err
			cancel()
			return
		}
		log.Warn().Err(err).Msg("Failed to poll notifications")
		return
	}

	for _, n := range items {
		if w.seen[n.ID] {
			continue
		}
		w.seen[n.ID] = true
		fmt.Fprintf(w.out, "[%s] %s: %s\n", n.NotificationType, n.Title, n.Message)
	}
}

func isSessionLost(err error) bool {
	return toCLIError(err).Type == clierr.Auth
}
