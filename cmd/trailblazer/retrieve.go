package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/retrieve"
	"github.com/trailblazer-io/trailblazer/internal/storage/postgres"
)

func init() {
	registerVerb("retrieve", runRetrieve)
}

func runRetrieve(args []string) error {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	query := fs.String("query", "", "natural-language query")
	spaces := fs.String("spaces", "", "comma-separated space whitelist")
	domainFilter := fs.String("domain", "", "domain filter applied to lexical search")
	topK := fs.Int("top-k", 0, "override configured final top-k")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" {
		return fmt.Errorf("retrieve: -query is required")
	}

	ctx := context.Background()
	pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	p, err := selectProvider(config.Provider)
	if err != nil {
		return err
	}

	var whitelist []string
	if *spaces != "" {
		whitelist = strings.Split(*spaces, ",")
	}

	r := retrieve.New(p, postgres.NewEmbeddingStore(pool), postgres.NewFullTextStore(pool), logger)
	opts := retrieve.Options{
		Query:           *query,
		TopKDense:       config.Retrieve.TopKDense,
		TopKBm25:        config.Retrieve.TopKBm25,
		TopK:            config.Retrieve.TopK,
		MaxChunksPerDoc: config.Retrieve.MaxChunksPerDoc,
		MaxChars:        config.Retrieve.MaxChars,
		RRFK:            config.Retrieve.RRFK,
		SpaceWhitelist:  whitelist,
		DomainFilter:    *domainFilter,
	}
	if *topK > 0 {
		opts.TopK = *topK
	}

	resp, err := r.Retrieve(ctx, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
