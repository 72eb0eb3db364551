package profile

import (
	"math"
	"testing"

	"reposcope/internal/snapshot/domain"
)

func snap(repos []domain.RepositoryRecord) *domain.UserSnapshot {
	s := &domain.UserSnapshot{Username: "u", Repositories: repos}
	s.RecomputeTotals()
	return s
}

func TestBuild_LanguagePercentagesSumTo100(t *testing.T) {
	s := snap([]domain.RepositoryRecord{
		{Name: "a", Languages: map[string]int64{"Go": 300, "Shell": 100}},
		{Name: "b", Languages: map[string]int64{"Go": 100, "Python": 500}},
	})
	p := Build(s)

	var sum float64
	for _, pct := range p.LanguagesPercentage {
		sum += pct
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", sum)
	}
	if p.LanguagesPercentage["Python"] != 50 {
		t.Fatalf("Python = %v, want 50", p.LanguagesPercentage["Python"])
	}
}

func TestBuild_NoLanguagesIsSafe(t *testing.T) {
	p := Build(snap([]domain.RepositoryRecord{{Name: "empty"}}))
	if len(p.LanguagesPercentage) != 0 || len(p.PrimaryLanguages) != 0 {
		t.Fatalf("got %v / %v for a snapshot with no languages", p.LanguagesPercentage, p.PrimaryLanguages)
	}
}

func TestRankLanguages_DeterministicTieBreak(t *testing.T) {
	got := rankLanguages(map[string]int64{"Zig": 100, "Ada": 100, "Go": 200}, 10)
	want := []string{"Go", "Ada", "Zig"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank = %v, want %v", got, want)
		}
	}

	// cap at n
	big := map[string]int64{}
	for _, l := range []string{"a", "b", "c", "d"} {
		big[l] = 1
	}
	if len(rankLanguages(big, 3)) != 3 {
		t.Fatalf("rank did not cap")
	}
}

func TestBuild_ScoresMatchFormulaAndClamp(t *testing.T) {
	// 2 repos, both public, 1 with readme, totals: 4 forks
	s := snap([]domain.RepositoryRecord{
		{Name: "a", Forks: 4, FeatureFlags: domain.FeatureFlags{HasReadme: true}},
		{Name: "b"},
	})
	p := Build(s)

	// readme 1/2*40 + public 2/2*30 + forks 4/2*30 = 20 + 30 + 60 -> clamped? 110 -> 100
	if p.CollaborationScore != 100 {
		t.Fatalf("collaboration = %v, want 100 (clamped)", p.CollaborationScore)
	}

	// innovation: stars 0 + languages 0*5 + originals 2/2*45 = 45
	if p.InnovationScore != 45 {
		t.Fatalf("innovation = %v, want 45", p.InnovationScore)
	}
}

func TestBuild_ZeroRepositoriesLeavesScoresZero(t *testing.T) {
	p := Build(snap(nil))
	if p.CollaborationScore != 0 || p.InnovationScore != 0 {
		t.Fatalf("scores = %v / %v, want 0", p.CollaborationScore, p.InnovationScore)
	}
	if p.ExperienceLevel != "Junior" {
		t.Fatalf("experience = %q", p.ExperienceLevel)
	}
}

func TestBuild_ExperienceThresholds(t *testing.T) {
	for _, tc := range []struct {
		stars, repos int
		want         string
	}{
		{501, 1, "Senior"},
		{0, 51, "Senior"},
		{101, 1, "Mid-level"},
		{0, 21, "Mid-level"},
		{100, 20, "Junior"},
	} {
		repos := make([]domain.RepositoryRecord, tc.repos)
		for i := range repos {
			repos[i].Name = "r"
		}
		if tc.repos > 0 {
			repos[0].Stars = tc.stars
		}
		if got := Build(snap(repos)).ExperienceLevel; got != tc.want {
			t.Fatalf("stars=%d repos=%d: got %q, want %q", tc.stars, tc.repos, got, tc.want)
		}
	}
}

func TestBuild_DeveloperType(t *testing.T) {
	web := domain.RepositoryRecord{Name: "w", Topics: []string{"react"}}
	mobile := domain.RepositoryRecord{Name: "m", Language: "Swift"}
	api := domain.RepositoryRecord{Name: "a", Topics: []string{"graphql"}}
	plain := domain.RepositoryRecord{Name: "p", Language: "Haskell", Languages: map[string]int64{"Haskell": 10}}
	goBackend := domain.RepositoryRecord{Name: "g", Language: "Go", Languages: map[string]int64{"Go": 10}}

	for _, tc := range []struct {
		repos []domain.RepositoryRecord
		want  string
	}{
		{[]domain.RepositoryRecord{web, mobile}, "Full-stack Developer"},
		{[]domain.RepositoryRecord{web}, "Frontend Developer"},
		{[]domain.RepositoryRecord{api}, "Backend Developer"},
		{[]domain.RepositoryRecord{goBackend}, "Backend Developer"}, // via primary language
		{[]domain.RepositoryRecord{plain}, "Software Developer"},
	} {
		if got := Build(snap(tc.repos)).DeveloperType; got != tc.want {
			t.Fatalf("repos %v: got %q, want %q", tc.repos, got, tc.want)
		}
	}
}

func TestBuild_FeaturedProjects(t *testing.T) {
	repos := []domain.RepositoryRecord{
		{Name: "fork", Stars: 99, IsFork: true},
		{Name: "beta", Stars: 5},
		{Name: "alpha", Stars: 5},
		{Name: "top", Stars: 10, Topics: []string{"cli"}},
		{Name: "e1"}, {Name: "e2"}, {Name: "e3"}, {Name: "e4"}, {Name: "e5"},
	}
	p := Build(snap(repos))

	if len(p.FeaturedProjects) != maxFeaturedProjects {
		t.Fatalf("featured = %d, want %d", len(p.FeaturedProjects), maxFeaturedProjects)
	}
	if p.FeaturedProjects[0].Name != "top" {
		t.Fatalf("first featured = %q", p.FeaturedProjects[0].Name)
	}
	// equal stars break by name; forks never appear
	if p.FeaturedProjects[1].Name != "alpha" || p.FeaturedProjects[2].Name != "beta" {
		t.Fatalf("tie-break order = %q, %q", p.FeaturedProjects[1].Name, p.FeaturedProjects[2].Name)
	}
	for _, f := range p.FeaturedProjects {
		if f.Name == "fork" {
			t.Fatalf("fork made it into featured projects")
		}
	}
	if p.FeaturedProjects[0].ProjectType != "cli-tool" {
		t.Fatalf("project type = %q", p.FeaturedProjects[0].ProjectType)
	}
}

func TestProjectType_FirstMatchWins(t *testing.T) {
	r := &domain.RepositoryRecord{Topics: []string{"library", "web"}}
	if got := ProjectType(r); got != "web-app" {
		t.Fatalf("got %q, want web-app (rule order)", got)
	}
	if got := ProjectType(&domain.RepositoryRecord{}); got != "other" {
		t.Fatalf("got %q, want other", got)
	}
}

func TestBuild_QualityCountsAndFlags(t *testing.T) {
	s := snap([]domain.RepositoryRecord{
		{Name: "a", IsPrivate: true, FeatureFlags: domain.FeatureFlags{HasReadme: true, HasTests: true}},
		{Name: "b", IsFork: true, FeatureFlags: domain.FeatureFlags{HasCI: true, HasDockerfile: true}},
		{Name: "c", Topics: []string{"library"}},
	})
	p := Build(s)

	if p.TotalRepositories != 3 || p.PublicRepositories != 2 || p.PrivateRepositories != 1 {
		t.Fatalf("repo counts: %+v", p)
	}
	if p.OriginalRepositories != 2 || p.ForkedRepositories != 1 {
		t.Fatalf("fork counts: %+v", p)
	}
	if p.RepositoriesWithReadme != 1 || p.RepositoriesWithTests != 1 || p.RepositoriesWithCI != 1 || p.RepositoriesWithDocker != 1 {
		t.Fatalf("quality counts: %+v", p)
	}
	if !p.HasLibraries || p.HasCLITools {
		t.Fatalf("flags: %+v", p)
	}
}
