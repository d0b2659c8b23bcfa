// Package warmup pre-computes the embeddings of stored transaction
// descriptions so the first semantic search does not pay for them.
//
// A Warmer pages through a storage.TransactionRepository with a
// TransactionIterator and hands each page, split into Config.Concurrency
// chunks, to an EmbeddingSource (normally a *search.Engine) as batch
// requests. Failed batches are retried with exponential backoff and
// progress is written to an io.Writer.
//
//	warmer, err := warmup.NewWarmer(txns, engine, warmup.DefaultConfig(), os.Stderr)
//	if err != nil {
//		return err
//	}
//	result, err := warmer.Run(ctx)
package warmup
