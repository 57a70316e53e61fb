package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/parser"
)

var errNoLaunchRequest = errors.New("no valid launch request in post")

func newParseCmd() *cobra.Command {
	var (
		file     string
		platform string
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse post content from a file or stdin and print the launch request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				content []byte
				err     error
			)
			if file == "" || file == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
			} else {
				content, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read post: %w", err)
			}

			req := parser.Parse(domain.SocialPost{
				Platform:  domain.Platform(platform),
				PostID:    "cli",
				Author:    "cli",
				Content:   string(content),
				Timestamp: time.Now().UTC(),
			})
			if req == nil {
				return errNoLaunchRequest
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(req)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the post content (default stdin)")
	cmd.Flags().StringVar(&platform, "platform", string(domain.PlatformManual), "platform recorded on the post")

	return cmd
}
