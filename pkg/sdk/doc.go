// Package recserve embeds the recserve recommendation core in a Go program.
//
// The client loads trained artifacts once and then serves ranked lists
// in-process, with the same candidate, scoring and normalization rules as
// the HTTP service.
//
//	client, err := recserve.New(
//	    recserve.WithLinks("data/links.csv"),
//	    recserve.WithFactorization("data/factorization.json"),
//	    recserve.WithValue("data/value_weights.json", "data/value_data.json"),
//	)
//	recs, err := client.Recommend(ctx, 42, 10)
//	best, ok, err := client.Best(ctx, 42)
package recserve
