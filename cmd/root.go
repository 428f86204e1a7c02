// Package cmd implements the sage command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Sage - assistente de conhecimento sobre altas habilidades/superdotação",
	Long: `Sage responde perguntas sobre altas habilidades/superdotação (AH/SD)
com base em uma base de conhecimento curada, citando as fontes usadas.

Comandos principais:
  sage ask        faz uma pergunta à base de conhecimento
  sage analyze    analisa um relato de caso
  sage resources  sugere recursos para um perfil
  sage kb         gerencia os itens da base de conhecimento
  sage migrate    aplica as migrações do banco de dados`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
