package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	analyzePersona string
	analyzeFile    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [relato do caso]",
	Short: "Analisa um relato de caso de possível AH/SD",
	Long: `Analisa um relato de caso, identificando indicadores de altas
habilidades/superdotação, pontos a investigar e encaminhamentos.

O relato pode ser passado como argumento ou lido de um arquivo com --file.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePersona, "persona", "p", "", personaFlagUsage())
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "arquivo com o relato do caso")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	persona, err := parsePersona(analyzePersona)
	if err != nil {
		return err
	}

	caseText := strings.TrimSpace(strings.Join(args, " "))
	if analyzeFile != "" {
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return fmt.Errorf("lendo arquivo do caso: %w", err)
		}
		caseText = strings.TrimSpace(string(data))
	}
	if caseText == "" {
		return fmt.Errorf("informe o relato do caso como argumento ou via --file")
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

	answer, err := svc.AnalyzeCase(ctx, caseText, persona)
	if err != nil {
		return err
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}
