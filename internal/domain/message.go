package domain

// Message is one normalized conversation turn, immutable once produced.
type Message struct {
	Role    string
	Content string
}
