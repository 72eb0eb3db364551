// Package profile derives a developer profile from a completed snapshot.
// Everything here is pure: same snapshot in, same profile out
package profile

import (
	"sort"

	"reposcope/internal/snapshot/domain"
)

const (
	maxPrimaryLanguages = 10
	maxFeaturedProjects = 6
)

// topic and language sets behind the has_* classification flags
var (
	webTopics    = set("web", "website", "react", "vue", "angular")
	webLangs     = set("JavaScript", "TypeScript", "HTML", "CSS")
	mobileTopics = set("mobile", "android", "ios", "react-native", "flutter")
	mobileLangs  = set("Swift", "Kotlin", "Java", "Dart")
	apiTopics    = set("api", "rest", "graphql", "fastapi", "express")
	libTopics    = set("library", "framework", "package")
	cliTopics    = set("cli", "command-line", "tool")

	backendLangs = set("Python", "Java", "Go", "Rust")
)

// projectTypeRules classify one repository; first match wins
var projectTypeRules = []struct {
	label  string
	topics map[string]struct{}
}{
	{"web-app", set("web", "website", "webapp", "frontend")},
	{"mobile-app", set("mobile", "android", "ios")},
	{"api", set("api", "rest", "graphql")},
	{"library", set("library", "framework", "package")},
	{"cli-tool", set("cli", "command-line", "tool")},
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// Build computes the derived profile. The snapshot is read, never mutated
func Build(snap *domain.UserSnapshot) *domain.Profile {
	p := &domain.Profile{
		TotalRepositories:  len(snap.Repositories),
		TotalStarsReceived: snap.TotalStars,
		TotalForksReceived: snap.TotalForks,
		Followers:          snap.Followers,
		Following:          snap.Following,
		LanguagesUsed:      snap.LanguagesUsed,
	}

	for i := range snap.Repositories {
		r := &snap.Repositories[i]
		if r.IsPrivate {
			p.PrivateRepositories++
		} else {
			p.PublicRepositories++
		}
		if r.IsFork {
			p.ForkedRepositories++
		} else {
			p.OriginalRepositories++
		}
		if r.HasReadme {
			p.RepositoriesWithReadme++
		}
		if r.HasTests {
			p.RepositoriesWithTests++
		}
		if r.HasCI {
			p.RepositoriesWithCI++
		}
		if r.HasDockerfile {
			p.RepositoriesWithDocker++
		}

		p.HasWebProjects = p.HasWebProjects || anyTopic(r.Topics, webTopics) || inSet(r.Language, webLangs)
		p.HasMobileProjects = p.HasMobileProjects || anyTopic(r.Topics, mobileTopics) || inSet(r.Language, mobileLangs)
		p.HasAPIs = p.HasAPIs || anyTopic(r.Topics, apiTopics)
		p.HasLibraries = p.HasLibraries || anyTopic(r.Topics, libTopics)
		p.HasCLITools = p.HasCLITools || anyTopic(r.Topics, cliTopics)
	}

	p.LanguagesPercentage = percentages(snap.LanguagesUsed)
	p.PrimaryLanguages = rankLanguages(snap.LanguagesUsed, maxPrimaryLanguages)

	if p.TotalRepositories > 0 {
		total := float64(p.TotalRepositories)
		p.CollaborationScore = clamp100(
			float64(p.RepositoriesWithReadme)/total*40 +
				float64(p.PublicRepositories)/total*30 +
				float64(p.TotalForksReceived)/total*30)

		originals := float64(p.OriginalRepositories)
		if originals < 1 {
			originals = 1
		}
		p.InnovationScore = clamp100(
			float64(p.TotalStarsReceived)/originals*50 +
				float64(len(snap.LanguagesUsed))*5 +
				float64(p.OriginalRepositories)/total*45)
	}

	switch {
	case p.TotalStarsReceived > 500 || p.TotalRepositories > 50:
		p.ExperienceLevel = "Senior"
	case p.TotalStarsReceived > 100 || p.TotalRepositories > 20:
		p.ExperienceLevel = "Mid-level"
	default:
		p.ExperienceLevel = "Junior"
	}

	switch {
	case p.HasWebProjects && p.HasMobileProjects:
		p.DeveloperType = "Full-stack Developer"
	case p.HasWebProjects:
		p.DeveloperType = "Frontend Developer"
	case p.HasAPIs || anyLang(topN(p.PrimaryLanguages, 3), backendLangs):
		p.DeveloperType = "Backend Developer"
	default:
		p.DeveloperType = "Software Developer"
	}

	p.FeaturedProjects = featured(snap.Repositories)
	return p
}

func percentages(langs map[string]int64) map[string]float64 {
	var total int64
	for _, b := range langs {
		total += b
	}
	if total == 0 {
		total = 1
	}
	out := make(map[string]float64, len(langs))
	for lang, b := range langs {
		out[lang] = float64(b) / float64(total) * 100
	}
	return out
}

// rankLanguages orders by byte count descending, name ascending on ties
func rankLanguages(langs map[string]int64, n int) []string {
	names := make([]string, 0, len(langs))
	for lang := range langs {
		names = append(names, lang)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// featured picks the top non-forks by stars, name ascending on ties
func featured(repos []domain.RepositoryRecord) []domain.FeaturedProject {
	idx := make([]int, 0, len(repos))
	for i := range repos {
		if !repos[i].IsFork {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		ra, rb := &repos[idx[a]], &repos[idx[b]]
		if ra.Stars != rb.Stars {
			return ra.Stars > rb.Stars
		}
		return ra.Name < rb.Name
	})
	if len(idx) > maxFeaturedProjects {
		idx = idx[:maxFeaturedProjects]
	}

	out := make([]domain.FeaturedProject, 0, len(idx))
	for _, i := range idx {
		r := &repos[i]
		out = append(out, domain.FeaturedProject{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
			Stars:       r.Stars,
			Forks:       r.Forks,
			Language:    r.Language,
			Topics:      r.Topics,
			UpdatedAt:   r.UpdatedAt,
			HasReadme:   r.HasReadme,
			ProjectType: ProjectType(r),
		})
	}
	return out
}

// ProjectType classifies a single repository by its topics; first matching
// rule wins, "other" when nothing matches
func ProjectType(r *domain.RepositoryRecord) string {
	topics := make(map[string]struct{}, len(r.Topics))
	for _, t := range r.Topics {
		topics[t] = struct{}{}
	}
	for _, rule := range projectTypeRules {
		for t := range rule.topics {
			if _, ok := topics[t]; ok {
				return rule.label
			}
		}
	}
	return "other"
}

func anyTopic(topics []string, want map[string]struct{}) bool {
	for _, t := range topics {
		if _, ok := want[t]; ok {
			return true
		}
	}
	return false
}

func anyLang(langs []string, want map[string]struct{}) bool {
	for _, l := range langs {
		if _, ok := want[l]; ok {
			return true
		}
	}
	return false
}

func inSet(s string, m map[string]struct{}) bool {
	_, ok := m[s]
	return ok
}

func topN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
