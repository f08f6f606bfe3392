package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/marka/internal/assess"
	"github.com/ppiankov/marka/internal/model"
	"github.com/ppiankov/marka/internal/pipeline"
)

var (
	category    string
	subcategory string
	goodsSource string
	volume      string
	assessCode  string
	listRules   bool
	rulesFile   string
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Tell whether goods must be marked and how",
	Long: `Assess resolves a marking verdict and the compliance steps.

For a category query the rule table is searched for the exact
(category, subcategory, source, volume) rule. Without one, volume and then
source are relaxed to "any". If no rule matches at all, the category is
unknown and nothing is guessed.

With --code the verdict comes from the code's status in the catalog
snapshot instead.

Sources: produce, buy_rf, import.
Volumes: "<100", "100-1000", ">1000" (rule tables may define others).

Example:
  marka assess --category pharma --subcategory medicines --source produce --volume 100-1000
  marka assess --code 6403990000
  marka assess --list`,
	Args: cobra.NoArgs,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&category, "category", "", "product category")
	assessCmd.Flags().StringVar(&subcategory, "subcategory", "", "product subcategory")
	assessCmd.Flags().StringVar(&goodsSource, "source", "", "goods source: produce, buy_rf or import")
	assessCmd.Flags().StringVar(&volume, "volume", "", "monthly volume bucket")
	assessCmd.Flags().StringVar(&assessCode, "code", "", "nomenclature code to assess from the catalog")
	assessCmd.Flags().BoolVar(&listRules, "list", false, "list known categories")
	assessCmd.Flags().StringVar(&rulesFile, "rules", "", "rule table YAML (default: assessment.rules_file or built-in)")
	assessCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "catalog snapshot for --code (default: output.snapshot)")

	assessCmd.MarkFlagsMutuallyExclusive("code", "category")
	assessCmd.MarkFlagsMutuallyExclusive("code", "list")
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg := *currentConfig()
	if rulesFile != "" {
		cfg.Assessment.RulesFile = rulesFile
	}

	snapshot := ""
	if assessCode != "" {
		snapshot = snapshotPath
		if snapshot == "" {
			snapshot = cfg.Output.Snapshot
		}
	}

	resolver, err := pipeline.LoadResolver(&cfg, snapshot)
	if err != nil {
		return err
	}

	if listRules {
		return writeJSON(cmd.OutOrStdout(), resolver.Categories())
	}

	var verdict model.Verdict
	if assessCode != "" {
		verdict, err = resolver.AssessCode(assessCode)
	} else {
		if category == "" || subcategory == "" || goodsSource == "" {
			return errors.New("--category, --subcategory and --source are required (or use --code)")
		}
		verdict, err = resolver.Assess(model.AssessmentQuery{
			Category:    category,
			Subcategory: subcategory,
			Source:      model.Source(goodsSource),
			Volume:      volume,
		})
	}

	var unknown *assess.UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		return fmt.Errorf("%w\nThis category is not covered by the rule table. Contact support for a manual assessment", err)
	case err != nil:
		return err
	}

	logger.Debug("assessment resolved")
	return writeJSON(cmd.OutOrStdout(), verdict)
}
