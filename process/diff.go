package process

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedDiff returns line difference between before and after in unified
// format without context lines (diff -U0).
func unifiedDiff(name, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var (
		sb               strings.Builder
		oldLine, newLine = 1, 1
		removed, added   []string
	)
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)

	flush := func() {
		if len(removed) == 0 && len(added) == 0 {
			return
		}
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n",
			hunkRange(oldLine-len(removed), len(removed)), hunkRange(newLine-len(added), len(added)))
		for _, l := range removed {
			writeLine(&sb, '-', l)
		}
		for _, l := range added {
			writeLine(&sb, '+', l)
		}
		removed, added = removed[:0], added[:0]
	}

	for _, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			oldLine += len(text)
			newLine += len(text)
		case diffmatchpatch.DiffDelete:
			removed = append(removed, text...)
			oldLine += len(text)
		case diffmatchpatch.DiffInsert:
			added = append(added, text...)
			newLine += len(text)
		}
	}
	flush()
	return sb.String()
}

// hunkRange formats start,count pair. Empty ranges point to the line before.
func hunkRange(start, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", start-1)
	case 1:
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func writeLine(sb *strings.Builder, prefix byte, line string) {
	sb.WriteByte(prefix)
	sb.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		sb.WriteString("\n\\ No newline at end of file\n")
	}
}
