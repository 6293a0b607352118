package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vschepin/gotpms/pkg/gotpms"
)

var (
	rootCmd = &cobra.Command{
		Use:   "gotpms-analyze [bits-hex]",
		Short: "Decode TPMS sensor telemetry from demodulated bit rows",
		Long: "gotpms-analyze decodes tire-pressure sensor packets from a hex dump of one\n" +
			"demodulated bit row, as captured at the sensor's raw transmitted polarity.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := gotpms.AnalyzeOptions{ShowRaw: showRaw}
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx, opts)
			}
			return runAnalyze(ctx, opts, args[0])
		},
	}

	showRaw bool
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&showRaw, "show-raw", false, "attach raw frame and payload diagnostics to readings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log rejected decode windows")
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runInteractive(ctx context.Context, opts gotpms.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("gotpms analyze mode. Paste a hex bit row and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode bit row")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, opts gotpms.AnalyzeOptions, hex string) error {
	result, err := gotpms.AnalyzeHexWithOptions(ctx, hex, opts)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	return nil
}
