package port

import "invoicerecon/internal/reconcile"

// ResultCache stores one reconciliation result per document name for the
// lifetime of a session. Put keeps the first result stored for a name and
// reports whether r was the one kept.
type ResultCache interface {
	Get(name string) (*reconcile.Result, bool)
	Put(name string, r *reconcile.Result) bool
	Len() int
	Results() []*reconcile.Result
}
