// Package pingcmd checks a running server's health endpoint, for use in
// deploy scripts and container health checks.
package pingcmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// Health mirrors the server's /healthz body.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type Options struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// Ping returns the reported health. A 503 still decodes so callers can show
// which dependency is down.
func Ping(ctx context.Context, o Options) (*Health, error) {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(o.URL, "/")).
		SetTimeout(o.Timeout).
		SetRetryCount(o.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")
	var h Health
	resp, err := cli.R().SetContext(ctx).SetResult(&h).SetError(&h).Get("/healthz")
	if err != nil {
		return nil, fmt.Errorf("GET %s/healthz: %w", o.URL, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &h, nil
	case http.StatusServiceUnavailable:
		return &h, fmt.Errorf("server degraded: database %s", h.Database)
	default:
		return nil, fmt.Errorf("GET %s/healthz: unexpected status %s", o.URL, resp.Status())
	}
}

// New returns the `faultctl ping` command.
func New() *cobra.Command {
	var o Options
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that a faultline server is up and its database reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := common.FromCommand(cmd); err != nil {
				return err
			}
			h, err := Ping(cmd.Context(), o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: status=%s database=%s\n", o.URL, h.Status, h.Database)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.URL, "url", "http://127.0.0.1:8080", "server base URL")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 5*time.Second, "per-attempt timeout")
	cmd.Flags().IntVar(&o.Retries, "retries", 2, "retries on connection errors")
	return cmd
}
