// Package poolfolio implements the accounting engine for a family's pooled
// brokerage transactions: the tax-lot ledger, the cost-basis allocator, the
// wash-sale detector and the duplicate-transaction detector.
//
// The engine itself performs no I/O. It reads and writes transaction records
// through the Store interface and computes everything else on the fly from
// in-memory collections, so distinct (owner, symbol) pairs can be processed
// in parallel while mutations within one pair stay serialized.
package poolfolio
