// File: cmd/composify/preview.go
// Brief: Diff previews and confirmation prompts before rewriting documents.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"
)

func renderUnifiedDiff(before string, after string, path string) string {
	before = strings.TrimRight(before, "\n")
	after = strings.TrimRight(after, "\n")
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before + "\n"),
		B:        difflib.SplitLines(after + "\n"),
		FromFile: path + " (before)",
		ToFile:   path + " (after)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}
	return text
}

// printPreview shows the would-be document change: the YAML snippet in
// green and, when the target already exists, a unified diff.
func printPreview(out io.Writer, snippet string, before string, after string, path string) {
	fmt.Fprintln(out, "The following will be written:")
	color.New(color.FgGreen).Fprint(out, snippet)
	if before != "" {
		if diff := renderUnifiedDiff(before, after, path); diff != "" {
			fmt.Fprintln(out)
			fmt.Fprint(out, diff)
		}
	}
}

// confirmProceed asks for confirmation on a TTY; an empty answer accepts.
// Non-interactive runs proceed without a prompt so scripted invocations keep
// the documented exit-code contract.
func confirmProceed(in io.Reader, out io.Writer, prompt string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	stdin, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		return true, nil
	}
	fmt.Fprintf(out, "%s [Y/n] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes", nil
}
