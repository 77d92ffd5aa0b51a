// Command corvid is the CLI surface over pkg/corvid: ingest reference
// recordings into a fingerprint index, then identify query clips against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/corvidlabs/corvid/pkg/corvid"
	"github.com/corvidlabs/corvid/pkg/logger"
)

// Exit codes per the engine's external-interface contract: 0 success
// (regardless of match/no-match), 2 invalid arguments, 3 I/O error, 4 decode
// error, 5 index error.
const (
	exitOK           = 0
	exitInvalidArgs  = 2
	exitIOError      = 3
	exitDecodeError  = 4
	exitIndexError   = 5
	exitUnknownError = 1
)

var (
	dbPath  string
	tempDir string
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.GetLogger()
	root := newRootCommand(log)
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	switch {
	case corvid.IsIOError(err):
		return exitIOError
	case corvid.IsDecodeError(err):
		return exitDecodeError
	case corvid.IsIndexError(err):
		return exitIndexError
	case errors.Is(err, errInvalidArgs):
		return exitInvalidArgs
	default:
		return exitUnknownError
	}
}

// errInvalidArgs marks a usage error (bad flags/arguments) distinct from a
// runtime failure inside the engine, so exitCodeFor can tell them apart.
var errInvalidArgs = fmt.Errorf("invalid arguments")

func newRootCommand(log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "corvid",
		Short:         "Landmark-pair audio fingerprinting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "corvid.sqlite3", "path to the fingerprint index")
	root.PersistentFlags().StringVar(&tempDir, "temp-dir", "", "scratch directory for decoded audio")

	root.AddCommand(
		newAddCommand(log),
		newIngestCommand(log),
		newIdentifyCommand(log),
		newListCommand(log),
		newDeleteCommand(log),
		newAnalyzeThresholdsCommand(log),
	)
	return root
}

func newServiceOptions() []corvid.Option {
	opts := []corvid.Option{corvid.WithDBPath(dbPath)}
	if tempDir != "" {
		opts = append(opts, corvid.WithTempDir(tempDir))
	}
	return corvid.ConfigFromEnv(opts...)
}

func newAddCommand(log *logger.Logger) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <audio_file>",
		Short: "Fingerprint one audio file and add it to the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := args[0]
			if name == "" {
				name = audioPath
			}

			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			songID, err := svc.AddRecording(cmd.Context(), audioPath, name)
			if err != nil {
				return err
			}

			fmt.Printf("added %q as song_id=%d\n", name, songID)
			log.Infof("added recording %q (song_id=%d) from %s", name, songID, audioPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "recording name (defaults to the file path)")
	return cmd
}

func newIngestCommand(log *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <folder>",
		Short: "Fingerprint every audio file in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			report, err := svc.IngestFolder(cmd.Context(), dir)
			if err != nil {
				return err
			}

			if report.Cancelled {
				fmt.Println("ingest cancelled")
				log.Warnf("ingest of %s cancelled", dir)
				return nil
			}

			fmt.Printf("ingested %d recording(s), %s total fingerprints, %d corrupt file(s) skipped\n",
				report.RecordingsAdded, humanize.Comma(int64(report.FingerprintCount)), report.CorruptFiles)
			for _, failure := range report.Failures {
				fmt.Printf("  skipped %s: %v\n", failure.Path, failure.Err)
			}
			log.Infof("ingest of %s: %d added, %d fingerprints, %d corrupt",
				dir, report.RecordingsAdded, report.FingerprintCount, report.CorruptFiles)
			return nil
		},
	}
	return cmd
}

func newIdentifyCommand(log *logger.Logger) *cobra.Command {
	var offsetSeconds, durationSeconds float64
	cmd := &cobra.Command{
		Use:   "identify <audio_file>",
		Short: "Identify a query clip against the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := args[0]
			if offsetSeconds < 0 {
				return fmt.Errorf("%w: --offset must be >= 0", errInvalidArgs)
			}

			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			result, err := svc.Identify(ctx, audioPath, offsetSeconds, durationSeconds)
			if err != nil {
				return err
			}

			if result.Cancelled {
				fmt.Println("identify cancelled")
				return nil
			}
			if !result.IsMatch() {
				fmt.Println("NO_MATCH")
				log.Infof("identify %s: no match", audioPath)
				return nil
			}

			fmt.Printf("match: %q (song_id=%d)\n", result.Recording.SongName, result.Recording.SongID)
			fmt.Printf("score: %d  confidence: %.2f\n", result.Score, result.Confidence)
			log.Infof("identify %s: matched %q score=%d confidence=%.2f",
				audioPath, result.Recording.SongName, result.Score, result.Confidence)
			return nil
		},
	}
	cmd.Flags().Float64Var(&offsetSeconds, "offset", 0, "seconds into the file to start the query window")
	cmd.Flags().Float64Var(&durationSeconds, "duration", 0, "seconds of the file to use (0 = whole remaining file)")
	return cmd
}

func newListCommand(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recording in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			recordings, err := svc.ListRecordings()
			if err != nil {
				return err
			}

			if len(recordings) == 0 {
				fmt.Println("index is empty")
				return nil
			}

			for _, rec := range recordings {
				fmt.Printf("%d\t%s\t%s\n", rec.SongID, rec.SongName, humanize.FormatFloat("#,###.#", rec.SongDurationSeconds)+"s")
			}
			log.Infof("listed %d recordings", len(recordings))
			return nil
		},
	}
}

func newAnalyzeThresholdsCommand(log *logger.Logger) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "analyze-thresholds",
		Short: "Self-match every recording in the index and classify it at a candidate score threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			report, err := svc.AnalyzeThresholds(cmd.Context(), threshold)
			if err != nil {
				return err
			}

			fmt.Printf("threshold=%d  TP=%d  FN=%d  FP=%d  no_match=%d\n",
				report.Threshold, report.TruePositives, report.FalseNegatives,
				report.FalsePositives, report.NoMatch)
			for _, entry := range report.PerRecording {
				fmt.Printf("  %-30s score=%d confidence=%.2f matched=%v correct=%v\n",
					entry.SongName, entry.Score, entry.Confidence, entry.Matched, entry.Correct)
			}
			log.Infof("analyze-thresholds at %d: %d TP, %d FN, %d FP, %d no-match",
				threshold, report.TruePositives, report.FalseNegatives, report.FalsePositives, report.NoMatch)
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 100, "candidate minimum score for a confident match")
	return cmd
}

func newDeleteCommand(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <song_id>",
		Short: "Delete a recording and its fingerprints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: invalid song id %q", errInvalidArgs, args[0])
			}

			svc, err := corvid.NewService(newServiceOptions()...)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.DeleteRecording(uint32(songID)); err != nil {
				return err
			}

			fmt.Printf("deleted song_id=%d\n", songID)
			log.Infof("deleted song_id=%d", songID)
			return nil
		},
	}
}
