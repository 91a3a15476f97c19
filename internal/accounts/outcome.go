package accounts

// ErroredCandidate carries the submitted fields of a candidate that
// could not be fully processed, with one message per failure in the
// order they occurred.
type ErroredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Messages  []string  `json:"messages"`
}

// BatchResult aggregates a provisioning batch. Created is authoritative
// for existence. Errored is advisory for operator follow-up: an account
// whose welcome notification failed appears in Created AND in Errored,
// so the two lists are not disjoint and their sizes need not sum to the
// batch size.
type BatchResult struct {
	Created []Account          `json:"created"`
	Errored []ErroredCandidate `json:"errored"`
}

func (r *BatchResult) created(a Account) {
	r.Created = append(r.Created, a)
}

func (r *BatchResult) errored(c Candidate, messages ...string) {
	r.Errored = append(r.Errored, ErroredCandidate{Candidate: c, Messages: messages})
}
