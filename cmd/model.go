package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the scoring model",
}

var modelCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a scoring model file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := modelPath(cmd)
		m, err := loadModel(path)
		if err != nil {
			return err
		}
		describeModel(os.Stdout, path, m)
		return nil
	},
}

var modelPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the active scoring model as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := loadModel(modelPath(cmd))
		if err != nil {
			return err
		}
		data, err := scorer.MarshalModel(m)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func modelPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("model") {
		p, _ := cmd.Flags().GetString("model")
		return p
	}
	return cfg.Model.Path
}

func describeModel(out io.Writer, path string, m config.ModelConfig) {
	if path == "" {
		path = "built-in"
	}
	_, _ = fmt.Fprintf(out, "model %s OK\n", path)
	_, _ = fmt.Fprintf(out, "  max score: %d\n", scorer.MaxScore(m))
	_, _ = fmt.Fprintf(out, "  priority edges: %v\n", m.PriorityEdges)
	for _, v := range model.Verticals {
		r := m.Verticals[v]
		_, _ = fmt.Fprintf(out, "  %s: min score %d, target %d, SLA %d days\n", v, r.MinScore, r.TargetCount, r.SLADays)
	}
}

func init() {
	modelCheckCmd.Flags().String("model", "", "model YAML to check (default: model.path or built-in)")
	modelPrintCmd.Flags().String("model", "", "model YAML to print (default: model.path or built-in)")

	modelCmd.AddCommand(modelCheckCmd)
	modelCmd.AddCommand(modelPrintCmd)
	rootCmd.AddCommand(modelCmd)
}
