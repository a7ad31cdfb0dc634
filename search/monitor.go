package search

import (
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(hits []index.Hit)
	AfterKeywordSearch(hits []index.Hit)
	SourceFailed(source string, err error)
	AfterFusion(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                     {}
func (n *noopMonitor) AfterVectorSearch(_ []index.Hit)    {}
func (n *noopMonitor) AfterKeywordSearch(_ []index.Hit)   {}
func (n *noopMonitor) SourceFailed(_ string, _ error)     {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)      {}
