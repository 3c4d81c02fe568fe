package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keepjoy/account-service/internal/deleteclient"
)

type options struct {
	baseURL string
	path    string
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "deletectl",
		Short:         "Operate the KeepJoy account deletion endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOrDefault("DELETE_USER_URL", "http://localhost:8080"), "Base URL of the deletion service")
	root.PersistentFlags().StringVar(&opts.path, "path", envOrDefault("DELETE_USER_PATH", deleteclient.DefaultPath), "Route the endpoint is mounted on")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 20*time.Second, "Timeout for service requests")

	root.AddCommand(newDeleteCmd(opts), newWaitCmd(opts))
	return root
}

func newDeleteCmd(opts *options) *cobra.Command {
	var (
		userID string
		token  string
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete the account owning the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errors.New("--user is required")
			}
			if token == "" {
				token = strings.TrimSpace(os.Getenv("ACCESS_TOKEN"))
			}
			if token == "" {
				return errors.New("--token or ACCESS_TOKEN is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			res, err := opts.client().Delete(ctx, token, userID)
			if err != nil {
				return err
			}
			if err := res.Err(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Message, userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID of the account to delete")
	cmd.Flags().StringVar(&token, "token", "", "Access token of that account (defaults to $ACCESS_TOKEN)")
	return cmd
}

func newWaitCmd(opts *options) *cobra.Command {
	var (
		retries int
		backoff time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the service reports healthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.client().WaitReady(cmd.Context(), retries, backoff); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "service ready")
			return nil
		},
	}
	cmd.Flags().IntVar(&retries, "retries", 8, "Number of health checks before giving up")
	cmd.Flags().DurationVar(&backoff, "backoff", 2*time.Second, "Delay between health checks")
	return cmd
}

func (o *options) client() *deleteclient.Client {
	return &deleteclient.Client{
		BaseURL:    o.baseURL,
		Path:       o.path,
		HTTPClient: &http.Client{Timeout: o.timeout},
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
