// Package main implements the assistant CLI, which answers cooking
// questions offline with the same resolver the API uses.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alchemorsel/kitchen/internal/domain/assistant"
	"github.com/alchemorsel/kitchen/internal/infrastructure/knowledge"
	"github.com/spf13/cobra"
)

var (
	// knowledgeFile replaces the built-in knowledge base when set
	knowledgeFile string
	verbose       bool
	version       = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Offline cooking assistant",
		Long: `assistant answers cooking questions from a knowledge base of
common issues, techniques and ingredient substitutions.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&knowledgeFile, "knowledge", "", "YAML knowledge base file (default: built-in)")

	askCmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a cooking question",
		Long: `Answer a cooking question.

Examples:
  assistant ask my sauce is too thin
  assistant ask what is braise
  assistant ask --verbose what can I substitute for buttermilk`,
		RunE: runAsk,
	}
	askCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show which rule matched")

	glossaryCmd := &cobra.Command{
		Use:   "glossary",
		Short: "List known techniques and substitutions",
		Args:  cobra.NoArgs,
		RunE:  runGlossary,
	}

	rootCmd.AddCommand(askCmd, glossaryCmd)
	return rootCmd
}

func loadResolver() (*assistant.Resolver, error) {
	if knowledgeFile == "" {
		return assistant.NewResolver(nil), nil
	}
	kb, err := knowledge.LoadFile(knowledgeFile)
	if err != nil {
		return nil, err
	}
	return assistant.NewResolver(kb), nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	resolver, err := loadResolver()
	if err != nil {
		return err
	}

	answer := resolver.Answer(strings.Join(args, " "))
	out := cmd.OutOrStdout()

	if verbose {
		if answer.Key != "" {
			fmt.Fprintf(out, "[%s: %s]\n", answer.Category, answer.Key)
		} else {
			fmt.Fprintf(out, "[%s]\n", answer.Category)
		}
	}
	fmt.Fprintln(out, answer.Text)
	return nil
}

func runGlossary(cmd *cobra.Command, args []string) error {
	resolver, err := loadResolver()
	if err != nil {
		return err
	}

	kb := resolver.KnowledgeBase()
	out := cmd.OutOrStdout()

	printSection(out, "Techniques", kb.Techniques())
	fmt.Fprintln(out)
	printSection(out, "Substitutions", kb.Substitutions())
	return nil
}

func printSection(out io.Writer, title string, entries []assistant.Entry) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  %s: %s\n", e.Key, e.Text())
	}
}
