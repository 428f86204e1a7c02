package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aldeialab/sage/internal/rag"
)

var (
	resourcesPersona string
	resourcesAge     int
	resourcesTraits  []string
	resourcesNeeds   []string
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Sugere recursos e atividades para um perfil",
	Long: `Sugere recursos, atividades e materiais adequados a um perfil de
criança ou adolescente com indicadores de AH/SD.

Exemplo:
  sage resources --age 9 --trait "curiosidade intensa" --need "desafio intelectual"`,
	RunE: runResources,
}

func init() {
	resourcesCmd.Flags().StringVarP(&resourcesPersona, "persona", "p", "", personaFlagUsage())
	resourcesCmd.Flags().IntVar(&resourcesAge, "age", 0, "idade em anos")
	resourcesCmd.Flags().StringArrayVar(&resourcesTraits, "trait", nil, "característica do perfil (repetível)")
	resourcesCmd.Flags().StringArrayVar(&resourcesNeeds, "need", nil, "necessidade do perfil (repetível)")
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	persona, err := parsePersona(resourcesPersona)
	if err != nil {
		return err
	}
	if resourcesAge == 0 && len(resourcesTraits) == 0 && len(resourcesNeeds) == 0 {
		return fmt.Errorf("informe ao menos um dos campos: --age, --trait, --need")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.rag(ctx)
	if err != nil {
		return err
	}

	answer, err := svc.SuggestResources(ctx, rag.Profile{
		Age:             resourcesAge,
		Characteristics: resourcesTraits,
		Needs:           resourcesNeeds,
	}, persona)
	if err != nil {
		return err
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}
