package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Manage document ids excluded from retrieval",
}

var blocklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the blocked document ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()
		printIDs(cmd, eng.Blocklist())
		return nil
	},
}

var blocklistAddCmd = &cobra.Command{
	Use:   "add <docId>...",
	Short: "Block document ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()
		ids, err := eng.BlockDocuments(args)
		if err != nil {
			return err
		}
		printIDs(cmd, ids)
		return nil
	},
}

var blocklistRemoveCmd = &cobra.Command{
	Use:   "remove <docId>...",
	Short: "Unblock document ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()
		ids, err := eng.UnblockDocuments(args)
		if err != nil {
			return err
		}
		printIDs(cmd, ids)
		return nil
	},
}

var blocklistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every id from the blocklist file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()
		return eng.ClearBlocklist()
	},
}

func init() {
	blocklistCmd.AddCommand(blocklistListCmd, blocklistAddCmd, blocklistRemoveCmd, blocklistClearCmd)
	rootCmd.AddCommand(blocklistCmd)
}

func printIDs(cmd *cobra.Command, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(empty)")
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, "\n"))
}
