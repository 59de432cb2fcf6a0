// Package credits provides the credit ledger bounded context: balance
// reads, transaction history, and the purchasable credit packages.
// Ledger writes happen only inside the purchase and top-up transactions
// owned by the leads and billing modules.
package credits
