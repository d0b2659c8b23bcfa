package badger

// Key prefixes for different data types
const (
	userRecordPrefix        = "usrrec:"
	transactionRecordPrefix = "txnrec:"
)

// makeUserKey generates a key for a user by ID.
func makeUserKey(id string) []byte {
	return []byte(userRecordPrefix + id)
}

// makeTransactionKey generates a key for a transaction by ID.
// Keys sort in the same order as the IDs they embed.
func makeTransactionKey(id string) []byte {
	return []byte(transactionRecordPrefix + id)
}
