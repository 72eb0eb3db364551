package github

import "time"

// Repo is a partial GitHub repository document with the fields we use
type Repo struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Private       bool      `json:"private"`
	Owner         User      `json:"owner"`
	DefaultBranch string    `json:"default_branch"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	ForksCount    int       `json:"forks_count"`
	Stargazers    int       `json:"stargazers_count"`
	Watchers      int       `json:"watchers_count"`
	Size          int       `json:"size"`
	License       *License  `json:"license"`
	Fork          bool      `json:"fork"`
	Archived      bool      `json:"archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
	HTMLURL       string    `json:"html_url"`
	CloneURL      string    `json:"clone_url"`
	SSHURL        string    `json:"ssh_url"`
}

// License is a partial GitHub license document
type License struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// User is a partial GitHub user or org document
type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Bio          string    `json:"bio"`
	Blog         string    `json:"blog"`
	AvatarURL    string    `json:"avatar_url"`
	Followers    int       `json:"followers"`
	Following    int       `json:"following"`
	PublicRepos  int       `json:"public_repos"`
	PrivateRepos int       `json:"total_private_repos"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	HTMLURL      string    `json:"html_url"`
}

// ContentEntry is one row of a repository directory listing
type ContentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // file | dir | symlink | submodule
}
