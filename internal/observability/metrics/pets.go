// Package metrics provides Prometheus instrumentation for petmint.
package metrics

// PetMinted records a mint operation.
func PetMinted(status string) {
	if !enabled {
		return
	}
	petsMintedTotal.WithLabelValues(status).Inc()
}

// PetMerged records a merge operation.
func PetMerged(status string) {
	if !enabled {
		return
	}
	petsMergedTotal.WithLabelValues(status).Inc()
}

// PetDeleted records a pet retirement.
func PetDeleted(status string) {
	if !enabled {
		return
	}
	petsDeletedTotal.WithLabelValues(status).Inc()
}

// MarketListing records a listing change. action is "list" or "delist".
func MarketListing(action, status string) {
	if !enabled {
		return
	}
	marketListingsTotal.WithLabelValues(action, status).Inc()
}

// MarketSale records a settled or failed purchase.
func MarketSale(status string) {
	if !enabled {
		return
	}
	marketSalesTotal.WithLabelValues(status).Inc()
}

// PaymentVerify records a payment verification attempt. kind is "mint" or
// "buy".
func PaymentVerify(kind, result string) {
	if !enabled {
		return
	}
	paymentVerifyTotal.WithLabelValues(kind, result).Inc()
}
