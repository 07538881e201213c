package search

// SearchMonitor provides hooks to observe queries served by a Service.
// Implementations must be safe for concurrent use.
type SearchMonitor interface {
	Start(query string, searchType SearchType)
	QueryEmbedded(query string, cached bool)
	EmbeddingFailed(query string, err error)
	AfterRanking(searchType SearchType, results []Result)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = noopMonitor{}

func (noopMonitor) Start(_ string, _ SearchType)          {}
func (noopMonitor) QueryEmbedded(_ string, _ bool)        {}
func (noopMonitor) EmbeddingFailed(_ string, _ error)     {}
func (noopMonitor) AfterRanking(_ SearchType, _ []Result) {}
func (noopMonitor) Finish(_ *Response)                    {}
