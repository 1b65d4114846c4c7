package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/aiesim/examples/pipeliner"
)

var pipelineInputs int

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run a four-stage computation along the cascade chain.",
	Long: "The stages x+3, x*7, x*x and x/42 run on the first four tiles " +
		"of the cascade chain. The inputs 0 to N-1 are streamed from the " +
		"host through a shim and every result is checked against the " +
		"same stages run on the host.",
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().IntVar(&pipelineInputs, "inputs", 10,
		"Number of inputs to stream through the pipeline")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	if pipelineInputs < 0 {
		return errors.Errorf("invalid number of inputs %d", pipelineInputs)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	stages := pipeliner.DemoStages()
	if len(stages) > s.cfg.Geography.NumTiles() {
		return s.abort(cmd.Context(), errors.Errorf(
			"%d stages do not fit in a %s array", len(stages), s.cfg.Geography))
	}

	host := pipeliner.HostPipeline(stages...)
	p := pipeliner.New(s.arrayBuilder(), "Array", stages...)
	p.Observe(s.observe)

	inputs := make([]any, pipelineInputs)
	for i := range inputs {
		inputs[i] = i
	}

	outputs, err := p.ExecuteAll(inputs)
	if err != nil {
		return s.abort(cmd.Context(), err)
	}

	g := s.cfg.Geography
	for id := range stages {
		s.paint(g.CascadeLinearX(id), g.CascadeLinearY(id),
			float64(id+1), 0, float64(len(stages)))
	}

	for i, out := range outputs {
		fmt.Fprintf(s.out, "%d -> %v\n", i, out)

		if expected := host(i); out != expected {
			return s.abort(cmd.Context(), errors.Errorf(
				"input %d: array computed %v, host computed %v", i, out, expected))
		}
	}

	return s.close(cmd.Context())
}
