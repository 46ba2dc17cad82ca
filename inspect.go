package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dhcgn/eml-extract/eml"
	"github.com/dhcgn/eml-extract/extract"
	"github.com/dhcgn/eml-extract/scan"
	"github.com/dhcgn/eml-extract/stats"
)

var (
	inspectReportDir string
	inspectTopN      int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files or directories]",
	Short: "Parse EML files and show attachment statistics without extracting",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := scan.CollectInputs(args)
		if err != nil {
			return fmt.Errorf("collect inputs: %w", err)
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no .eml files found in the given paths")
		}

		typeCounter := make(map[string]int)

		rows := pterm.TableData{{"File", "Subject", "Attachments"}}
		attachmentCount := 0
		failedCount := 0

		for _, path := range inputs {
			file, err := os.Open(path)
			if err != nil {
				pterm.Error.Printf("%s: %v\n", path, err)
				failedCount++
				continue
			}
			msg, err := eml.Parse(file)
			file.Close()
			if err != nil {
				pterm.Error.Printf("%s: %v\n", path, err)
				failedCount++
				continue
			}

			subject := msg.Subject
			if subject == "" {
				subject = "(no subject)"
			}

			attachments := msg.Attachments()
			attachmentCount += len(attachments)
			for _, part := range attachments {
				typeCounter[attachmentType(part.Filename)]++
			}

			rows = append(rows, []string{
				filepath.Base(path),
				subject,
				strconv.Itoa(len(attachments)),
			})
		}

		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		fmt.Printf("\nParsed %d files (%d failed), %d attachments\n\n", len(inputs)-failedCount, failedCount, attachmentCount)
		fmt.Printf("Top %d attachment types:\n", inspectTopN)
		stats.PrettyPrintTop(typeCounter, inspectTopN)

		if inspectReportDir != "" {
			if err := saveTypeReport(typeCounter, inspectReportDir); err != nil {
				return fmt.Errorf("save report: %w", err)
			}
			fmt.Printf("\nReport saved to directory: %s\n", inspectReportDir)
		}

		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectReportDir, "report-dir", "r", "", "Directory for a CSV report of attachment types")
	inspectCmd.Flags().IntVarP(&inspectTopN, "top", "t", 10, "Number of top attachment types to display")
	rootCmd.AddCommand(inspectCmd)
}

func attachmentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(extract.SanitizeName(filename)), "."))
	if ext == "" {
		return extract.NoTypeLabel
	}
	return ext
}

func saveTypeReport(counter map[string]int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(dir, "report_attachment_types.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"Type", "Count"}); err != nil {
		return err
	}

	type pair struct {
		Key   string
		Value int
	}
	var pairs []pair
	for k, v := range counter {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	for _, p := range pairs {
		if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
