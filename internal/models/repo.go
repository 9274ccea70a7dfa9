package models

// RepoSummary is the normalized view of one starred repository.
type RepoSummary struct {
	Owner       string   `json:"owner_username"`
	Name        string   `json:"repository_name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}

func (r RepoSummary) FullName() string {
	return r.Owner + "/" + r.Name
}

// TopicInfo describes one discovered topic. Topic -1 collects outliers.
type TopicInfo struct {
	Topic              int      `json:"Topic"`
	Count              int      `json:"Count"`
	Name               string   `json:"Name"`
	Representation     []string `json:"Representation"`
	RepresentativeDocs []string `json:"Representative_Docs"`
	Label              string   `json:"Label,omitempty"`
}

type TopicAnalysis struct {
	TopicDistribution []int       `json:"topic_distribution"`
	TopicInfo         []TopicInfo `json:"topic_info"`
}

type AnalysisResult struct {
	RepositoryInfo []RepoSummary `json:"repository_info"`
	TopicAnalysis  TopicAnalysis `json:"topic_analysis"`
}

// AnalysisRecord is the persisted summary of one completed analysis.
type AnalysisRecord struct {
	Username   string   `json:"username"`
	MaxRepos   *int     `json:"max_repos,omitempty"`
	RepoCount  int      `json:"repo_count"`
	TopicCount int      `json:"topic_count"`
	Outliers   int      `json:"outliers"`
	Topics     []string `json:"topics"`
	AnalyzedAt string   `json:"analyzed_at,omitempty"`
}
