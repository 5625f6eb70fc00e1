package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/labelshare/pkg/client"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

var (
	apiURL     string
	apiToken   string
	activeOnly bool
)

func init() {
	linksCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (defaults to API_BASE_URL)")
	linksCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Bearer token (defaults to API_TOKEN)")
	linksListCmd.Flags().BoolVar(&activeOnly, "active", false, "Only show active links")

	linksCmd.AddCommand(linksListCmd, linksInfoCmd, linksRevokeCmd, linksDeleteCmd)
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Manage your share links through the API",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the links you created",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listLinks(cmd.Context(), apiClient(), activeOnly, cmd.OutOrStdout())
	},
}

var linksInfoCmd = &cobra.Command{
	Use:   "info <token>",
	Short: "Show what a visitor sees for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return linkInfo(cmd.Context(), apiClient(), args[0], cmd.OutOrStdout())
	},
}

var linksRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Deactivate one of your links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeactivateLink(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", args[0])
		return nil
	},
}

var linksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteLink(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

// apiClient resolves --api and --token against the environment.
func apiClient() *client.Client {
	cfg := config.Load()
	base, token := apiURL, apiToken
	if base == "" {
		base = cfg.APIBaseURL
	}
	if token == "" {
		token = cfg.APIToken
	}
	return client.New(base, client.WithToken(token))
}

func listLinks(ctx context.Context, c *client.Client, activeOnly bool, w io.Writer) error {
	links, err := c.ListLinks(ctx)
	if err != nil {
		return err
	}
	if activeOnly {
		links = lo.Filter(links, func(l domain.ShareLink, _ int) bool { return l.IsActive })
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tDOWNLOADS\tEXPIRES\tACTIVE\tURL")
	for _, l := range links {
		downloads := fmt.Sprintf("%d", l.DownloadCount)
		if l.MaxDownloads != nil {
			downloads += fmt.Sprintf("/%d", *l.MaxDownloads)
		}
		expires := "never"
		if l.ExpiresAt != nil {
			expires = l.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", l.ID, l.FilePath, downloads, expires, l.IsActive, l.URL)
	}
	return tw.Flush()
}

func linkInfo(ctx context.Context, c *client.Client, token string, w io.Writer) error {
	info, err := c.GetPublicInfo(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "name:       %s (%d bytes)\n", info.Name, info.Size)
	fmt.Fprintf(w, "password:   %t\n", info.RequiresPassword)
	if info.ExpiresAt != nil {
		fmt.Fprintf(w, "expires:    %s\n", info.ExpiresAt.Format(time.RFC3339))
	}
	downloads := fmt.Sprintf("%d", info.DownloadCount)
	if info.MaxDownloads != nil {
		downloads += fmt.Sprintf("/%d", *info.MaxDownloads)
	}
	fmt.Fprintf(w, "downloads:  %s\n", downloads)
	if info.Redeemable {
		fmt.Fprintln(w, "status:     redeemable")
	} else {
		fmt.Fprintf(w, "status:     %s\n", info.Reason)
	}
	return nil
}
