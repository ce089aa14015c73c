package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // enrichment runs once per process
var enrichOnce sync.Once

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends the list of available subcommands to a parent
// command's Long description.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			sb.WriteString(fmt.Sprintf("  %-16s %s\n", sub.Name(), sub.Short))
		}
	}
	cmd.Long = sb.String()
}

// enrichHelp lists subcommands in the Long text of every parent below root.
func enrichHelp(root *cobra.Command) {
	enrichOnce.Do(func() {
		for _, cmd := range root.Commands() {
			walkCommands(cmd, enrichParentLong)
		}
	})
}
