package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

const askPrompt = "Ask Something: "

type queryFlags struct {
	collection string
	topK       int
	retrieval  bool
	jsonOut    bool
}

func newQueryCommand(rt *session) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer a question from an ingested collection",
		Long: `Retrieves the chunks most similar to the question and asks the model to answer
from them only, citing source pages. Without a question argument it prompts for one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rt, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.collection, "collection", "C", "", "collection to query (required)")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&f.retrieval, "retrieve-only", false, "print ranked chunks without generating an answer")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func runQuery(cmd *cobra.Command, rt *session, f *queryFlags, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		var err error
		question, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	a, err := rt.open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	topK := f.topK
	if !cmd.Flags().Changed("top-k") {
		topK = a.Config().Query.DefaultTopK
	}

	if f.retrieval {
		hits, err := a.Search.Retrieve(cmd.Context(), f.collection, question, topK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if f.jsonOut {
			return printJSON(cmd, hitsJSON(hits))
		}
		printHits(cmd, hits)
		return nil
	}

	ans, err := a.Query.Query(cmd.Context(), queryuc.Request{Collection: f.collection, Query: question, TopK: topK})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if f.jsonOut {
		return printJSON(cmd, answerJSON(ans))
	}
	printAnswer(cmd, ans)
	return nil
}

func prompt(in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, askPrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read question: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no question given")
	}
	return line, nil
}

func printAnswer(cmd *cobra.Command, ans answer.Answer) {
	cmd.Println(ans.Text)
	if len(ans.Citations) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, c := range ans.Citations {
		cmd.Printf("  - %s, page %d\n", c.Source, c.Page)
	}
}

func printHits(cmd *cobra.Command, hits []record.Hit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, h := range hits {
		r := h.Record()
		cmd.Printf("  [%d] %s, page %d (%.3f)\n", i+1, r.Source(), r.Page(), h.Score())
		cmd.Printf("      %s\n", strings.ReplaceAll(r.Text(), "\n", " "))
	}
}

type citationJSON struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

type answerOutput struct {
	Answer    string         `json:"answer"`
	Grounded  bool           `json:"grounded"`
	Citations []citationJSON `json:"citations"`
}

func answerJSON(ans answer.Answer) answerOutput {
	cites := make([]citationJSON, len(ans.Citations))
	for i, c := range ans.Citations {
		cites[i] = citationJSON{Source: c.Source, Page: c.Page}
	}
	return answerOutput{Answer: ans.Text, Grounded: ans.Grounded, Citations: cites}
}

type hitJSON struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Text   string  `json:"text"`
}

func hitsJSON(hits []record.Hit) []hitJSON {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		r := h.Record()
		out[i] = hitJSON{ID: r.ID(), Score: h.Score(), Source: r.Source(), Page: r.Page(), Text: r.Text()}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
