package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aldeialab/sage/internal/config"
	"github.com/aldeialab/sage/internal/knowledge"
	"github.com/aldeialab/sage/internal/rag"
)

var (
	askPersona   string
	askThreshold float64
	askCount     int
	askSource    string
	askCategory  string
)

var askCmd = &cobra.Command{
	Use:   "ask [pergunta]",
	Short: "Faz uma pergunta fundamentada na base de conhecimento",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askPersona, "persona", "p", "", personaFlagUsage())
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "similaridade mínima dos itens recuperados (0 usa o padrão)")
	askCmd.Flags().IntVar(&askCount, "count", 0, "máximo de itens recuperados (0 usa o padrão)")
	askCmd.Flags().StringVar(&askSource, "source", "", sourceFlagUsage())
	askCmd.Flags().StringVar(&askCategory, "category", "", categoryFlagUsage())
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	persona, err := parsePersona(askPersona)
	if err != nil {
		return err
	}
	source, category, err := parseFilters(askSource, askCategory)
	if err != nil {
		return err
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

	threshold, count := resolveRetrieval(askThreshold, askCount, a.cfg)
	answer, err := svc.Answer(ctx, rag.Query{
		Question:  strings.Join(args, " "),
		Persona:   persona,
		Threshold: threshold,
		Count:     count,
		Source:    source,
		Category:  category,
	})
	if err != nil {
		return err
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

// printAnswer renders an answer with its sources and confidence.
func printAnswer(w io.Writer, answer *rag.Answer) {
	fmt.Fprintln(w, answer.Text)
	fmt.Fprintln(w)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(w, "Fontes:")
		for i, src := range answer.Sources {
			fmt.Fprintf(w, "  [%d] %s (%s/%s, similaridade %.0f%%)\n",
				i+1, src.Item.Title, src.Item.Source, src.Item.Category, src.Similarity*100)
		}
	} else {
		fmt.Fprintln(w, "Fontes: nenhuma (resposta não fundamentada na base)")
	}
	fmt.Fprintf(w, "Confiança: %.0f%%  Tokens: %d\n", answer.Confidence*100, answer.TokensUsed)
}

func personaFlagUsage() string {
	names := make([]string, len(rag.Personas))
	for i, p := range rag.Personas {
		names[i] = string(p)
	}
	return "persona da resposta (" + strings.Join(names, ", ") + ")"
}

func sourceFlagUsage() string {
	names := make([]string, len(knowledge.Sources))
	for i, s := range knowledge.Sources {
		names[i] = string(s)
	}
	return "filtra por fonte (" + strings.Join(names, ", ") + ")"
}

func categoryFlagUsage() string {
	names := make([]string, len(knowledge.Categories))
	for i, c := range knowledge.Categories {
		names[i] = string(c)
	}
	return "filtra por categoria (" + strings.Join(names, ", ") + ")"
}

// resolveRetrieval picks the retrieval knobs by precedence: an explicit flag
// wins, then the configured defaults (file or SAGE_* environment), then the
// pipeline's built-in constants when the config leaves them zero.
func resolveRetrieval(flagThreshold float64, flagCount int, cfg *config.Config) (float64, int) {
	threshold := flagThreshold
	if threshold == 0 {
		threshold = cfg.MatchThreshold
	}
	count := flagCount
	if count == 0 {
		count = cfg.MatchCount
	}
	return threshold, count
}

// parsePersona validates the persona flag; empty means the service default.
func parsePersona(value string) (rag.Persona, error) {
	if value == "" {
		return "", nil
	}
	p := rag.Persona(value)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q (use: %s)", rag.ErrInvalidPersona, value, personaFlagUsage())
	}
	return p, nil
}

// parseFilters validates the optional source and category flags.
func parseFilters(sourceValue, categoryValue string) (knowledge.Source, knowledge.Category, error) {
	var source knowledge.Source
	var category knowledge.Category
	if sourceValue != "" {
		source = knowledge.Source(sourceValue)
		if !source.Valid() {
			return "", "", fmt.Errorf("fonte inválida: %q", sourceValue)
		}
	}
	if categoryValue != "" {
		category = knowledge.Category(categoryValue)
		if !category.Valid() {
			return "", "", fmt.Errorf("categoria inválida: %q", categoryValue)
		}
	}
	return source, category, nil
}
