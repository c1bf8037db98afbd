package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowcare/internal/assessment/classifier"
)

var classifyFlags struct {
	age, cycleLength, periodDuration, flowHeaviness, painLevel string
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the pattern for a set of answers",
	Example: `  flowcare classify --age 13-17 --flow-heaviness heavy
  flowcare classify --cycle-length 26-30 --pain-level severe`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := classifier.Inputs{
			Age:            flagValue(cmd, "age", classifyFlags.age),
			CycleLength:    flagValue(cmd, "cycle-length", classifyFlags.cycleLength),
			PeriodDuration: flagValue(cmd, "period-duration", classifyFlags.periodDuration),
			FlowHeaviness:  flagValue(cmd, "flow-heaviness", classifyFlags.flowHeaviness),
			PainLevel:      flagValue(cmd, "pain-level", classifyFlags.painLevel),
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), classifier.Classify(in))
		return err
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyFlags.age, "age", "", "age band (e.g. under-13, 13-17, 18-25)")
	f.StringVar(&classifyFlags.cycleLength, "cycle-length", "", "cycle length band")
	f.StringVar(&classifyFlags.periodDuration, "period-duration", "", "period duration band")
	f.StringVar(&classifyFlags.flowHeaviness, "flow-heaviness", "", "flow heaviness band")
	f.StringVar(&classifyFlags.painLevel, "pain-level", "", "pain level band")
}

// flagValue returns nil for flags the user did not set.
func flagValue(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
