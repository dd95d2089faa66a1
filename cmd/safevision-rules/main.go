// Package main provides a CLI tool for validating and submitting SafeVision
// detection condition files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"safevision-console/internal/api"
	"safevision-console/internal/condition"
	"safevision-console/internal/config"
	"safevision-console/internal/rules"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidateCmd(os.Args[2:])
	case "list":
		runListCmd(os.Args[2:])
	case "push":
		runPushCmd(os.Args[2:])
	case "-version", "--version", "-v":
		fmt.Printf("safevision-rules %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: safevision-rules <command> [flags] [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  validate  Validate YAML condition files or directories\n")
	fmt.Fprintf(os.Stderr, "  list      List conditions found in files or directories\n")
	fmt.Fprintf(os.Stderr, "  push      Submit conditions to the backend as detection rules\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	fmt.Fprintf(os.Stderr, "  -version  Show version and exit\n")
}

func runValidateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show detailed condition information")
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one path is required\n")
		fmt.Fprintf(os.Stderr, "Usage: safevision-rules validate [--verbose] <path> [<path>...]\n")
		os.Exit(1)
	}

	os.Exit(runValidate(paths, *verbose))
}

func runListCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"conditions"}
	}

	os.Exit(runList(paths))
}

func runPushCmd(args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	serverURL := fs.String("server", "", "SafeVision backend URL (overrides config)")
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one condition file is required\n")
		fmt.Fprintf(os.Stderr, "Usage: safevision-rules push [--server URL] <file> [<file>...]\n")
		os.Exit(1)
	}

	os.Exit(runPush(paths, *serverURL))
}

func runValidate(paths []string, verbose bool) int {
	var totalFiles, validFiles, invalidFiles int

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			invalidFiles++
			continue
		}

		if info.IsDir() {
			files, err := collectYAMLFiles(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading directory %s: %v\n", path, err)
				invalidFiles++
				continue
			}
			for _, f := range files {
				totalFiles++
				if validateFile(f, verbose) {
					validFiles++
				} else {
					invalidFiles++
				}
			}
		} else {
			totalFiles++
			if validateFile(path, verbose) {
				validFiles++
			} else {
				invalidFiles++
			}
		}
	}

	fmt.Printf("\nResults: %d files checked, %d valid, %d invalid\n", totalFiles, validFiles, invalidFiles)

	if invalidFiles > 0 {
		return 1
	}
	return 0
}

func validateFile(path string, verbose bool) bool {
	conditions, err := condition.LoadConditions(path)
	if err != nil {
		fmt.Printf("  FAIL  %s: %v\n", path, err)
		return false
	}

	fmt.Printf("  OK    %s (%d condition(s))\n", path, len(conditions))

	if verbose {
		for _, c := range conditions {
			severity := condition.SeverityForRate(c.Rate)
			fmt.Printf("        - %s (type=%s, rate=%d, severity=%s)\n",
				c.Name, c.Type, c.Rate, severity)
			if _, err := c.Type.ServerRuleType(); err != nil {
				fmt.Printf("          warning: %v\n", err)
			}
		}
	}

	return true
}

func runList(paths []string) int {
	for _, path := range paths {
		files, err := collectYAMLFiles(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			continue
		}

		for _, f := range files {
			conditions, err := condition.LoadConditions(f)
			if err != nil {
				continue
			}
			for _, c := range conditions {
				fmt.Printf("%-36s  %-12s  rate=%-2d  %s\n",
					c.ID, c.Type, c.Rate, c.Name)
			}
		}
	}
	return 0
}

func runPush(paths []string, serverURL string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if serverURL != "" {
		cfg.Client.BaseURL = serverURL
	}

	client, err := api.NewClient(cfg.Client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	submitter := rules.NewSubmitter(client)

	var submitted, failed int
	for _, path := range paths {
		conditions, err := condition.LoadConditions(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed++
			continue
		}

		for _, c := range conditions {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			msg, err := submitter.Submit(ctx, c)
			cancel()
			if err != nil {
				fmt.Printf("  FAIL  %s: %v\n", c.Name, err)
				failed++
				continue
			}
			fmt.Printf("  OK    %s: %s\n", c.Name, msg)
			submitted++
		}
	}

	fmt.Printf("\nResults: %d submitted, %d failed\n", submitted, failed)

	if failed > 0 {
		return 1
	}
	return 0
}

func collectYAMLFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
