// Package payermatch identifies which users a financial transaction most
// likely came from and finds transactions with similar descriptions.
//
// A Service ties the pieces together: records are imported from CSV into a
// badger store, names are matched with the matching package, and semantic
// search runs on the search engine backed by an embedding provider.
//
//	svc, err := payermatch.Open(ctx,
//		payermatch.WithDataFiles("data/users.csv", "data/transactions.csv"),
//	)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	result, err := svc.MatchTransaction(ctx, "caqjJtrI", 60)
package payermatch
