package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/aiesim/examples/cascadestream"
)

var cascadeCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Send the coordinates of every tile along the cascade chain.",
	Long: "Every tile but the first reads the coordinates of its " +
		"predecessor on the cascade chain and every tile but the last " +
		"sends its own. The readings are printed in cascade order.",
	Args: cobra.NoArgs,
	RunE: runCascade,
}

func init() {
	rootCmd.AddCommand(cascadeCmd)
}

func runCascade(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	stream := cascadestream.Build(s.arrayBuilder(), "Array")
	s.observe(stream.Array())

	readings, err := stream.Run()
	if err != nil {
		return s.abort(cmd.Context(), err)
	}

	maxID := float64(s.cfg.Geography.NumTiles() - 1)
	for _, r := range readings {
		fmt.Fprintf(s.out, "Tile(%d,%d) read %#x\n", r.X, r.Y, r.Value)
		s.paint(r.X, r.Y, float64(r.CascadeID), 0, maxID)
	}

	return s.close(cmd.Context())
}
