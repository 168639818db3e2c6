package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/p4bughunt/p4-tv/pkg/driver"
	"github.com/p4bughunt/p4-tv/pkg/frontend"
	"github.com/p4bughunt/p4-tv/pkg/report"
	"github.com/p4bughunt/p4-tv/pkg/smt"
)

func main() {
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:   "p4tv",
		Short: "Translation-validation oracle for P4 compiler passes",
	}

	var progs []string
	var typesPath string
	var allowUndef bool
	var failureDir string
	var workers int
	var verbose bool
	var useNaive bool

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check a chain of programs for pairwise equivalence",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(progs) < 2 {
				return fmt.Errorf("--progs needs at least two programs")
			}

			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			cfg := driver.Config{
				AllowUndef: allowUndef,
				Workers:    workers,
				FailureDir: failureDir,
				Log:        log,
			}

			newEngine := func(sorts *smt.Registry) (smt.Engine, error) {
				if useNaive {
					return smt.NewNaiveEngine(), nil
				}
				return smt.NewZ3Engine(sorts)
			}

			results, err := driver.Run(progs, typesPath, newEngine, cfg)
			if err != nil {
				return err
			}

			table := report.NewTable()
			for i, r := range results {
				table.Add(report.Entry{A: progs[i], B: progs[i+1], PairResult: r})
			}
			report.Render(os.Stdout, table)

			exitCode = worstOutcome(results)
			return nil
		},
	}
	checkCmd.Flags().StringSliceVar(&progs, "progs", nil, "Ordered list of IR program files to check pairwise (required, >=2)")
	checkCmd.Flags().StringVar(&typesPath, "types", "", "Shared type-environment JSON file (struct/header/enum declarations)")
	checkCmd.Flags().BoolVarP(&allowUndef, "allow_undefined", "u", false, "Allow undefined-value-only counterexamples")
	checkCmd.Flags().StringVar(&failureDir, "failure-dir", "", "Directory to copy offending program files into on violation")
	checkCmd.Flags().IntVar(&workers, "workers", 0, "Pipeline-level concurrency within one pair (0 = NumCPU)")
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	checkCmd.Flags().BoolVar(&useNaive, "naive", false, "Use the brute-force engine instead of Z3 (testing only)")
	_ = checkCmd.MarkFlagRequired("progs")

	var listProgs []string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the pipelines declared in a program",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range listProgs {
				pkg, err := frontend.LoadFile(p)
				if err != nil {
					return err
				}
				fmt.Printf("%s:\n", p)
				for name := range pkg.Pipelines {
					fmt.Printf("  %s\n", name)
				}
			}
			return nil
		},
	}
	listCmd.Flags().StringSliceVar(&listProgs, "progs", nil, "Program files to list")
	_ = listCmd.MarkFlagRequired("progs")

	rootCmd.AddCommand(checkCmd, listCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(driver.FAILURE) + 1)
	}
	os.Exit(exitCode)
}

// worstOutcome maps the chain's first non-OK result to a process exit code
// (§6 "Exit codes map 1:1 to the outcomes above"): 0 for OK, otherwise the
// Outcome's own ordinal plus one, so a calling script can distinguish every
// failure mode without parsing the table. Any error returned through cobra
// (a flag-parsing error, or a setup error from driver.Run) exits with
// FAILURE's code, FAILURE's ordinal plus one.
func worstOutcome(results []driver.PairResult) int {
	for _, r := range results {
		if r.Overall != driver.OK {
			return int(r.Overall) + 1
		}
	}
	return 0
}
