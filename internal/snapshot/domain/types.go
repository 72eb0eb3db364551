// Package domain defines the data model the fetch pipeline produces: one
// RepositoryRecord per remote repository, a UserSnapshot per account, and the
// derived Profile the downstream generators consume
package domain

import "time"

// FeatureFlags are the best-effort marker-file probes for one repository
type FeatureFlags struct {
	HasReadme     bool `json:"has_readme"`
	HasLicense    bool `json:"has_license"`
	HasDockerfile bool `json:"has_dockerfile"`
	HasCI         bool `json:"has_ci"`
	HasTests      bool `json:"has_tests"`
}

// RepositoryRecord is one remote repository's observed state at fetch time.
// Created during enumeration, mutated only by probing/mirroring, then frozen.
// JSON tags match the on-disk cache schema
type RepositoryRecord struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	CloneURL    string `json:"clone_url"`
	SSHURL      string `json:"ssh_url"`

	Language string `json:"language"`
	// Languages maps language name to byte count. Empty (never nil) when the
	// remote has no breakdown or the lookup degraded
	Languages map[string]int64 `json:"languages"`
	Topics    []string         `json:"topics"`

	Stars    int `json:"stars"`
	Forks    int `json:"forks"`
	Watchers int `json:"watchers"`
	SizeKB   int `json:"size"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`

	DefaultBranch string `json:"default_branch"`
	IsPrivate     bool   `json:"is_private"`
	IsFork        bool   `json:"is_fork"`
	IsArchived    bool   `json:"is_archived"`

	LicenseName string `json:"license_name,omitempty"`

	FeatureFlags

	LocalPath       string `json:"local_path,omitempty"`
	FilesDownloaded bool   `json:"files_downloaded"`
}

// UserSnapshot is the complete fetched state for one account at one point in
// time. It is the unit of caching and the hand-off artifact to downstream
// consumers, which read it and must not mutate it
type UserSnapshot struct {
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Location  string `json:"location,omitempty"`
	Website   string `json:"website,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	PublicRepos  int `json:"public_repos"`
	PrivateRepos int `json:"private_repos"`
	Followers    int `json:"followers"`
	Following    int `json:"following"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	FetchedAt time.Time `json:"fetched_at"`

	Repositories []RepositoryRecord `json:"repositories"`

	TotalStars    int              `json:"total_stars"`
	TotalForks    int              `json:"total_forks"`
	LanguagesUsed map[string]int64 `json:"languages_used"`

	// Profile is derived and cheap to recompute; it is never persisted to the
	// cache and is nil until explicitly rebuilt
	Profile *Profile `json:"-"`
}

// FeaturedProject is one highlighted non-fork repository in a Profile
type FeaturedProject struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	UpdatedAt   time.Time `json:"updated_at"`
	HasReadme   bool      `json:"has_readme"`
	ProjectType string    `json:"project_type"`
}

// Profile is the heuristic classification computed once from a completed
// snapshot. Scores are clamped to [0,100]; PrimaryLanguages holds at most 10
// entries and FeaturedProjects at most 6
type Profile struct {
	TotalRepositories    int `json:"total_repositories"`
	PublicRepositories   int `json:"public_repositories"`
	PrivateRepositories  int `json:"private_repositories"`
	OriginalRepositories int `json:"original_repositories"`
	ForkedRepositories   int `json:"forked_repositories"`

	TotalStarsReceived int `json:"total_stars_received"`
	TotalForksReceived int `json:"total_forks_received"`
	Followers          int `json:"followers"`
	Following          int `json:"following"`

	LanguagesUsed       map[string]int64   `json:"languages_used"`
	LanguagesPercentage map[string]float64 `json:"languages_percentage"`
	PrimaryLanguages    []string           `json:"primary_languages"`

	HasWebProjects    bool `json:"has_web_projects"`
	HasMobileProjects bool `json:"has_mobile_projects"`
	HasAPIs           bool `json:"has_apis"`
	HasLibraries      bool `json:"has_libraries"`
	HasCLITools       bool `json:"has_cli_tools"`

	RepositoriesWithReadme int `json:"repositories_with_readme"`
	RepositoriesWithTests  int `json:"repositories_with_tests"`
	RepositoriesWithCI     int `json:"repositories_with_ci"`
	RepositoriesWithDocker int `json:"repositories_with_docker"`

	CollaborationScore float64 `json:"collaboration_score"`
	InnovationScore    float64 `json:"innovation_score"`

	ExperienceLevel string `json:"experience_level"`
	DeveloperType   string `json:"developer_type"`

	FeaturedProjects []FeaturedProject `json:"featured_projects"`
}

// RecomputeTotals rewrites the aggregate counters from the repository list.
// Kept on the type so every construction path (fetch, cache rehydration)
// enforces the same invariant
func (s *UserSnapshot) RecomputeTotals() {
	s.TotalStars = 0
	s.TotalForks = 0
	s.LanguagesUsed = make(map[string]int64, len(s.LanguagesUsed))
	for i := range s.Repositories {
		r := &s.Repositories[i]
		s.TotalStars += r.Stars
		s.TotalForks += r.Forks
		for lang, bytes := range r.Languages {
			s.LanguagesUsed[lang] += bytes
		}
	}
}
