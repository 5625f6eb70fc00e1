package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/core/policy"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

var (
	dbURL      string
	importFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database URL (defaults to DATABASE_URL)")
	importCmd.Flags().StringVar(&importFile, "file", "", "JSON file to import")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(exportCmd, importCmd, inspectCmd)
}

var rootCmd = &cobra.Command{
	Use:           "sharectl",
	Short:         "Maintenance tool for share links",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every share link as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		return exportLinks(cmd.Context(), repo, cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load share links from a JSON export, skipping tokens that already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		file, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		logger := logging.NewConsoleLogger(logging.LevelInformational)
		imported, err := importLinks(cmd.Context(), repo, file, logger)
		if err != nil {
			return err
		}
		logger.Info("Imported %d links", imported)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Show a link and whether it can be redeemed right now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		return inspectLink(cmd.Context(), repo, args[0], time.Now(), cmd.OutOrStdout())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRepo() (*sqlite.SQLiteRepository, error) {
	url := dbURL
	if url == "" {
		url = config.Load().DatabaseURL
	}
	repo, err := sqlite.NewSQLiteRepository(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return repo, nil
}

// linkRecord is the export format. Unlike the API view it keeps the
// password hash so links survive a migration intact.
type linkRecord struct {
	domain.ShareLink
	PasswordHash *string `json:"passwordHash,omitempty"`
}

func exportLinks(ctx context.Context, repo ports.ShareLinkRepository, w io.Writer) error {
	links, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	records := lo.Map(links, func(l domain.ShareLink, _ int) linkRecord {
		return linkRecord{ShareLink: l, PasswordHash: l.PasswordHash}
	})

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func importLinks(ctx context.Context, repo ports.ShareLinkRepository, r io.Reader, logger logging.Logger) (int, error) {
	var records []linkRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}

	count := 0
	for _, rec := range records {
		link := rec.ShareLink
		link.PasswordHash = rec.PasswordHash

		_, err := repo.GetByToken(ctx, link.Token)
		if err == nil {
			logger.Warning("Skipping existing token for link %s", link.ID)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return count, fmt.Errorf("lookup of %s failed: %w", link.ID, err)
		}
		if err := repo.Insert(ctx, &link); err != nil {
			logger.Error("Failed to import %s: %s", link.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

func inspectLink(ctx context.Context, repo ports.ShareLinkRepository, token string, now time.Time, w io.Writer) error {
	link, err := repo.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	decision := policy.Evaluate(link, now)
	fmt.Fprintf(w, "id:         %s\n", link.ID)
	fmt.Fprintf(w, "file:       %s (%s, %d bytes)\n", link.FilePath, link.FileName, link.FileSize)
	fmt.Fprintf(w, "owner:      %s\n", link.CreatedBy)
	fmt.Fprintf(w, "password:   %t\n", link.HasPassword())
	if link.ExpiresAt != nil {
		fmt.Fprintf(w, "expires:    %s\n", link.ExpiresAt.Format(time.RFC3339))
	}
	downloads := fmt.Sprintf("%d", link.DownloadCount)
	if link.MaxDownloads != nil {
		downloads += fmt.Sprintf("/%d", *link.MaxDownloads)
	}
	fmt.Fprintf(w, "downloads:  %s\n", downloads)
	if decision.Redeemable {
		fmt.Fprintln(w, "status:     redeemable")
	} else {
		fmt.Fprintf(w, "status:     %s (%s)\n", policy.ReasonCode(decision.Reason), decision.Reason)
	}
	return nil
}
