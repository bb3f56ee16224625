package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prettymuchbryce/testwire/internal/protocol"
	"github.com/spf13/cobra"
)

var decodeText bool

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Print the framed messages of a stream as JSON lines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		return decodeStream(in, os.Stdout, os.Stderr)
	},
}

func decodeStream(in io.Reader, out, text io.Writer) error {
	d := protocol.NewDecoder(in)
	enc := json.NewEncoder(out)
	printed := 0
	for {
		msg, err := d.Next()
		if decodeText {
			for _, line := range d.Text()[printed:] {
				fmt.Fprintln(text, line)
			}
			printed = len(d.Text())
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeText, "text", false, "print unframed text to stderr")
	rootCmd.AddCommand(decodeCmd)
}
