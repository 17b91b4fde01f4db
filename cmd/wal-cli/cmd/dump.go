package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backbone81/region-wal/pkg/wal"
)

var dumpJSON bool

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Prints the entry keys of the write-ahead log.",
	Long:         `Prints the entry keys of the write-ahead log, one entry per line, in log order.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		segments, err := wal.GetSegments(directory)
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			return fmt.Errorf("no segment found in %q", directory)
		}

		reader, err := wal.NewReader(directory, segments[0])
		if err != nil {
			return err
		}
		defer func() {
			if err := reader.Close(); err != nil {
				fmt.Println(err)
			}
		}()

		encoder := json.NewEncoder(os.Stdout)
		for reader.Next() {
			value := reader.Value()
			if dumpJSON {
				fields := value.Key.StringMap()
				fields["editBytes"] = len(value.Edit)
				if err := encoder.Encode(fields); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%s cluster=%d editBytes=%d\n", value.Key.String(), value.Key.ClusterID(), len(value.Edit))
		}

		// The regular end of the log reports ErrEntryNone on the last segment or a missing next segment file. A
		// record which could not be decoded reports ErrEntryNone as well, but needs to reach the user instead of
		// silently truncating the dump.
		err = reader.Err()
		if errors.Is(err, wal.ErrRecordMalformed) {
			return err
		}
		if errors.Is(err, wal.ErrEntryNone) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().BoolVar(
		&dumpJSON,
		"json",
		false,
		"Print every entry as a JSON object instead of plain text.",
	)
}
