package domain

type Provider struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

type Service struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// QueueEntry is one customer in a provider's live queue.
type QueueEntry struct {
	ID           int64  `json:"id"`
	Token        string `json:"token"`
	CustomerID   int64  `json:"customerId"`
	CustomerName string `json:"customerName"`
	Status       string `json:"status"`
}

// ProviderQueue is the provider-side view of one service's queue: the
// customer being served now plus everyone still waiting, in call order.
type ProviderQueue struct {
	Current *QueueEntry  `json:"current"`
	Waiting []QueueEntry `json:"waiting"`
}
