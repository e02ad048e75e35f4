package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"abicomscraper/pkg/errors"
)

// WriteCSV writes the full inventory, one row per file
func WriteCSV(inv *Inventory, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"bucket", "filename", "date", "size_bytes", "modified", "misfiled"}
	if err := cw.Write(header); err != nil {
		return errors.New(errors.ErrorTypeFilesystem, 0, "failed to write csv header: %v", err)
	}

	for _, e := range inv.Entries {
		row := []string{
			e.Bucket,
			e.Filename,
			fmt.Sprintf("%s-%s-%s", e.Date.Year, e.Date.Month, e.Date.Day),
			strconv.FormatInt(e.Size, 10),
			e.ModTime.Format("2006-01-02 15:04:05"),
			strconv.FormatBool(e.Misfiled),
		}
		if err := cw.Write(row); err != nil {
			return errors.New(errors.ErrorTypeFilesystem, 0, "failed to write csv row: %v", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.New(errors.ErrorTypeFilesystem, 0, "failed to flush csv: %v", err)
	}
	return nil
}

// RenderSummary renders the per-bucket summary as a terminal table
func RenderSummary(inv *Inventory) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Bucket", "Files", "Size", "Misfiled"})

	for _, b := range inv.Buckets {
		bucket := b.Bucket
		if bucket == "" {
			bucket = "(flat)"
		}
		t.AppendRow(table.Row{bucket, b.Files, formatSize(b.TotalSize), b.Misfiled})
	}

	t.AppendFooter(table.Row{"Total", len(inv.Entries), formatSize(inv.TotalSize), inv.Misfiled})
	return t.Render()
}

// formatSize renders a byte count in a human-friendly unit
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
