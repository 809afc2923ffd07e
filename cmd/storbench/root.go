package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// program flags, shared across subcommands
var (
	blockSize   int    // size of each read in bytes
	ioDepth     int    // per-reactor queue depth
	parallel    int    // number of parallel jobs, one reactor each
	runSeconds  int    // benchmark duration in seconds
	backendKind string // "file" or "s3"
	directIO    bool   // O_DIRECT for the file backend
	objectSize  int64  // object size in bytes (required for s3)
	s3Endpoint  string
	s3Region    string
	s3SSL       bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "storbench",
	Short: "Benchmark asynchronous storage reads through the stornado engine.",
	Long: `storbench submits read requests into per-job reactors and harvests
completions in bulk, mimicking the submit/getevents cycle of a
poll-driven benchmarking host.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetLogLoggerLevel(level)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&blockSize, "block", "b", 4096, "read size in bytes")
	rootCmd.PersistentFlags().IntVarP(&ioDepth, "iodepth", "q", 16, "in-flight requests per job")
	rootCmd.PersistentFlags().IntVarP(&parallel, "jobs", "P", 1, "number of parallel jobs")
	rootCmd.PersistentFlags().IntVarP(&runSeconds, "runtime", "t", 10, "benchmark duration in seconds")
	rootCmd.PersistentFlags().StringVar(&backendKind, "backend", "file", "storage backend (file or s3)")
	rootCmd.PersistentFlags().BoolVarP(&directIO, "direct", "d", false, "use direct io (file backend, linux)")
	rootCmd.PersistentFlags().Int64Var(&objectSize, "size", 0, "object size in bytes (required for the s3 backend)")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", "localhost:9000", "s3 endpoint host:port")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "", "s3 region")
	rootCmd.PersistentFlags().BoolVar(&s3SSL, "s3-ssl", false, "use tls for the s3 endpoint")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and final metrics dump")
}
