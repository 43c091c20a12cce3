package main

import (
	"fmt"
	"strconv"
	"time"

	"dropzone/internal/inspect"
)

func descriptorRows(d inspect.FileDescriptor) [][]string {
	ext := "-"
	if d.Ext != nil {
		ext = *d.Ext
	}
	return [][]string{
		{"Path", d.Path},
		{"Name", d.Name},
		{"Type", d.FileType},
		{"Extension", ext},
		{"Size", fmt.Sprintf("%s (%d bytes)", d.FormattedSize, d.Size)},
		{"Regular file", yesNo(d.IsFile)},
		{"Directory", yesNo(d.IsDir)},
		{"Modified", formatMillis(d.Modified)},
		{"Created", formatMillis(d.Created)},
		{"Accessed", formatMillis(d.Accessed)},
		{"Result", d.ProcessingResult},
	}
}

func renderDescriptor(d inspect.FileDescriptor) string {
	return renderTable([]string{"Field", "Value"}, descriptorRows(d), []columnAlignment{alignLeft, alignLeft})
}

func historyRows(list []inspect.FileDescriptor) [][]string {
	rows := make([][]string, 0, len(list))
	for i, d := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			d.Name,
			d.FileType,
			d.FormattedSize,
			formatMillis(d.Modified),
			d.Path,
		})
	}
	return rows
}

func renderHistory(list []inspect.FileDescriptor) string {
	return renderTable(
		[]string{"#", "Name", "Type", "Size", "Modified", "Path"},
		historyRows(list),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func formatMillis(ms uint64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(int64(ms)).Local().Format("2006-01-02 15:04:05")
}
