// Package ragdex answers questions from your documents with page citations.
//
// Documents are loaded (PDF, DOCX, text, markdown), split into overlapping
// character windows, embedded, and stored in a vector store (SQLite, Valkey,
// Redis or Postgres with pgvector). A query retrieves the most similar chunks
// and asks a chat model to answer from them only.
//
//	client, _ := ragdex.New(
//	    ragdex.WithSQLite("data/ragdex.db"),
//	    ragdex.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, ragdex.IngestRequest{Source: "guide.pdf", Collection: "docs"})
//	ans, _ := client.Query(ctx, "docs", "What runtime does Node.js use?", 3)
//	fmt.Println(ans.Text, ans.Citations)
package ragdex
