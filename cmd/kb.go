package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aldeialab/sage/internal/knowledge"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Gerencia os itens da base de conhecimento",
}

var (
	kbAddTitle     string
	kbAddContent   string
	kbAddFile      string
	kbAddSource    string
	kbAddCategory  string
	kbAddMetadata  []string
	kbAddCreatedBy string
)

var kbAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Adiciona um item à base de conhecimento",
	Long: `Adiciona um item à base de conhecimento. O conteúdo é convertido em
vetor de embedding antes de ser armazenado, o que exige GEMINI_API_KEY.

Exemplo:
  sage kb add --title "Sinais precoces" --file sinais.txt \
    --source aldeia --category identificacao`,
	RunE: runKBAdd,
}

var (
	kbListPage     int
	kbListPageSize int
	kbListSource   string
	kbListCategory string
)

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista os itens da base de conhecimento",
	RunE:  runKBList,
}

var kbShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Mostra um item da base de conhecimento",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBShow,
}

var (
	kbUpdateTitle    string
	kbUpdateContent  string
	kbUpdateSource   string
	kbUpdateCategory string
)

var kbUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Atualiza campos de um item da base de conhecimento",
	Long: `Atualiza campos de um item existente. Quando o conteúdo muda, o
embedding é regenerado, o que exige GEMINI_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: runKBUpdate,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove um item da base de conhecimento",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Mostra estatísticas da base de conhecimento",
	RunE:  runKBStats,
}

func init() {
	kbAddCmd.Flags().StringVar(&kbAddTitle, "title", "", "título do item")
	kbAddCmd.Flags().StringVar(&kbAddContent, "content", "", "conteúdo do item")
	kbAddCmd.Flags().StringVarP(&kbAddFile, "file", "f", "", "arquivo com o conteúdo do item")
	kbAddCmd.Flags().StringVar(&kbAddSource, "source", "", sourceFlagUsage())
	kbAddCmd.Flags().StringVar(&kbAddCategory, "category", "", categoryFlagUsage())
	kbAddCmd.Flags().StringArrayVar(&kbAddMetadata, "meta", nil, "metadado chave=valor (repetível)")
	kbAddCmd.Flags().StringVar(&kbAddCreatedBy, "created-by", "cli", "identificação de quem adicionou")
	_ = kbAddCmd.MarkFlagRequired("title")
	_ = kbAddCmd.MarkFlagRequired("source")
	_ = kbAddCmd.MarkFlagRequired("category")

	kbListCmd.Flags().IntVar(&kbListPage, "page", 1, "página")
	kbListCmd.Flags().IntVar(&kbListPageSize, "page-size", knowledge.DefaultPageSize, "itens por página")
	kbListCmd.Flags().StringVar(&kbListSource, "source", "", sourceFlagUsage())
	kbListCmd.Flags().StringVar(&kbListCategory, "category", "", categoryFlagUsage())

	kbUpdateCmd.Flags().StringVar(&kbUpdateTitle, "title", "", "novo título")
	kbUpdateCmd.Flags().StringVar(&kbUpdateContent, "content", "", "novo conteúdo (regenera o embedding)")
	kbUpdateCmd.Flags().StringVar(&kbUpdateSource, "source", "", "nova fonte")
	kbUpdateCmd.Flags().StringVar(&kbUpdateCategory, "category", "", "nova categoria")

	kbCmd.AddCommand(kbAddCmd, kbListCmd, kbShowCmd, kbUpdateCmd, kbDeleteCmd, kbStatsCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	source, category, err := parseFilters(kbAddSource, kbAddCategory)
	if err != nil {
		return err
	}

	content := kbAddContent
	if kbAddFile != "" {
		data, err := os.ReadFile(kbAddFile)
		if err != nil {
			return fmt.Errorf("lendo arquivo de conteúdo: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if content == "" {
		return fmt.Errorf("informe o conteúdo via --content ou --file")
	}

	metadata, err := parseMetadataFlags(kbAddMetadata)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	embedder, err := a.embedder(ctx)
	if err != nil {
		return err
	}
	vector, _, err := embedder.Embed(ctx, content)
	if err != nil {
		return err
	}

	id, err := a.store.Add(ctx, knowledge.Item{
		Title:     kbAddTitle,
		Content:   content,
		Source:    source,
		Category:  category,
		Embedding: vector,
		Metadata:  metadata,
		CreatedBy: kbAddCreatedBy,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Item adicionado: %s\n", id)
	return nil
}

func runKBList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	source, category, err := parseFilters(kbListSource, kbListCategory)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.store.List(ctx, kbListPage, kbListPageSize, knowledge.ListFilters{
		Source:   source,
		Category: category,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, item := range page.Items {
		fmt.Fprintf(w, "%s  %-12s %-15s %s\n", item.ID, item.Source, item.Category, item.Title)
	}
	fmt.Fprintf(w, "\nPágina %d de %d (%d itens no total)\n", kbListPage, page.TotalPages, page.TotalCount)
	return nil
}

func runKBShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("id inválido: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:        %s\n", item.ID)
	fmt.Fprintf(w, "Título:    %s\n", item.Title)
	fmt.Fprintf(w, "Fonte:     %s\n", item.Source)
	fmt.Fprintf(w, "Categoria: %s\n", item.Category)
	fmt.Fprintf(w, "Tipo:      %s\n", item.DocumentType)
	if item.FileURL != "" {
		fmt.Fprintf(w, "Arquivo:   %s\n", item.FileURL)
	}
	fmt.Fprintf(w, "Criado:    %s por %s\n", item.CreatedAt.Format("2006-01-02 15:04"), item.CreatedBy)
	for key, value := range item.Metadata {
		fmt.Fprintf(w, "Meta:      %s=%s\n", key, value)
	}
	fmt.Fprintf(w, "\n%s\n", item.Content)
	return nil
}

func runKBUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("id inválido: %w", err)
	}

	var patch knowledge.Patch
	if kbUpdateTitle != "" {
		patch.Title = &kbUpdateTitle
	}
	if kbUpdateSource != "" {
		source := knowledge.Source(kbUpdateSource)
		if !source.Valid() {
			return fmt.Errorf("fonte inválida: %q", kbUpdateSource)
		}
		patch.Source = &source
	}
	if kbUpdateCategory != "" {
		category := knowledge.Category(kbUpdateCategory)
		if !category.Valid() {
			return fmt.Errorf("categoria inválida: %q", kbUpdateCategory)
		}
		patch.Category = &category
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// New content invalidates the stored vector, so both travel together.
	if kbUpdateContent != "" {
		embedder, err := a.embedder(ctx)
		if err != nil {
			return err
		}
		vector, _, err := embedder.Embed(ctx, kbUpdateContent)
		if err != nil {
			return err
		}
		patch.Content = &kbUpdateContent
		patch.Embedding = vector
	}

	if err := a.store.Update(ctx, id, patch); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Item atualizado: %s\n", id)
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("id inválido: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Item removido: %s\n", id)
	return nil
}

func runKBStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total de itens: %d\n\n", stats.Total)
	fmt.Fprintln(w, "Por fonte:")
	for _, source := range knowledge.Sources {
		if count := stats.BySource[source]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", source, count)
		}
	}
	fmt.Fprintln(w, "\nPor categoria:")
	for _, category := range knowledge.Categories {
		if count := stats.ByCategory[category]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", category, count)
		}
	}
	return nil
}

// parseMetadataFlags converts repeated chave=valor flags into a map.
func parseMetadataFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("metadado inválido %q (use chave=valor)", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
